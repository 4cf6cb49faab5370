package shared

import "time"

// TimestampLayout is the layout used when timestamps are serialized to maps.
const TimestampLayout = time.RFC3339Nano

// FormatTime renders t in TimestampLayout, or returns nil when t is nil.
func FormatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(TimestampLayout)
}

// Clock returns the current time. Handlers take one so tests can pin "now".
type Clock func() time.Time

// SystemClock returns the current UTC time.
func SystemClock() time.Time {
	return time.Now().UTC()
}
