package rules

import "time"

// Clock abstracts the current time so evaluators can be pinned to a fixed
// date in tests. Month and day boundaries are computed in the clock's
// location, not the user's time zone.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
