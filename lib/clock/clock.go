package clock

import (
	"time"
)

const layout = "2006-01-02T15:04:05Z"

// Clock is the time source used for first_used/last_used bookkeeping.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Now is the current UTC time formatted for API responses.
func Now() string {
	return Format(time.Now())
}

func Format(t time.Time) string {
	return t.UTC().Format(layout)
}

// Remaining is what is left of window measured from start, never negative.
func Remaining(start, now time.Time, window time.Duration) time.Duration {
	left := window - now.Sub(start)
	if left < 0 {
		return 0
	}
	return left
}
