package scheduler

import "time"

// defaultInterval replaces a non-positive interval.
const defaultInterval = time.Minute

// IntervalSchedule fires every Interval after the previous run started.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule returns a schedule firing every d.
func NewIntervalSchedule(d time.Duration) *IntervalSchedule {
	if d <= 0 {
		d = defaultInterval
	}
	return &IntervalSchedule{Interval: d}
}

// Next implements Schedule.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String implements Schedule.
func (s *IntervalSchedule) String() string {
	return "@every " + s.Interval.String()
}
