package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	delay time.Duration

	active  atomic.Int32
	overlap atomic.Bool
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(ctx context.Context) error {
	if j.active.Add(1) > 1 {
		j.overlap.Store(true)
	}
	defer j.active.Add(-1)

	j.runs.Add(1)
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func newTestScheduler(runOnStart bool) *Scheduler {
	return NewScheduler(SchedulerConfig{TickInterval: 5 * time.Millisecond, RunOnStart: runOnStart})
}

func TestRegister_Errors(t *testing.T) {
	s := newTestScheduler(false)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(false)
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	require.NoError(t, s.Register(failing, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "failing")
	assert.EqualError(t, err, "boom")
	require.NotNil(t, result)
	assert.True(t, result.Manual)
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), failing.runs.Load())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	info, err := s.GetJobInfo("failing")
	require.NoError(t, err)
	require.NotNil(t, info.LastResult)
	assert.True(t, info.LastResult.Manual)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(false)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestStart_RunOnStart(t *testing.T) {
	s := newTestScheduler(true)
	job := &countingJob{name: "rebuild"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	var (
		mu      sync.Mutex
		results []JobResult
	)
	s.OnJobComplete(func(r JobResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.Equal(t, "rebuild", results[0].JobName)
	assert.True(t, results[0].Success)
	assert.False(t, results[0].Manual)
}

func TestStart_WithoutRunOnStartWaitsForSchedule(t *testing.T) {
	s := newTestScheduler(false)
	job := &countingJob{name: "rebuild"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, job.runs.Load())
}

func TestScheduler_JobNeverOverlaps(t *testing.T) {
	s := newTestScheduler(true)
	job := &countingJob{name: "slow", delay: 40 * time.Millisecond}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	assert.False(t, job.overlap.Load())

	info, err := s.GetJobInfo("slow")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.RunCount, int64(2))
}

func TestStop_CancelsRunningJobs(t *testing.T) {
	s := newTestScheduler(true)
	job := &countingJob{name: "long", delay: time.Hour}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.active.Load() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	info, err := s.GetJobInfo("long")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.FailCount)
}

func TestListJobs_SortedByName(t *testing.T) {
	s := newTestScheduler(false)
	require.NoError(t, s.Register(&countingJob{name: "zeta"}, NewIntervalSchedule(time.Minute)))
	require.NoError(t, s.Register(&countingJob{name: "alpha"}, NewIntervalSchedule(2*time.Minute)))

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "alpha", jobs[0].Name)
	assert.Equal(t, "@every 2m0s", jobs[0].Schedule)
	assert.Equal(t, "zeta", jobs[1].Name)
}

func TestIntervalSchedule_Next(t *testing.T) {
	at := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(5*time.Minute), NewIntervalSchedule(5*time.Minute).Next(at))
}

func TestIntervalSchedule_NonPositiveFallsBack(t *testing.T) {
	assert.Equal(t, time.Minute, NewIntervalSchedule(0).Interval)
	assert.Equal(t, "@every 1m0s", NewIntervalSchedule(-time.Second).String())
}
