package domain

import "time"

// Clock supplies the current time. Expiry of seat locks and pending
// bookings is always a comparison against Clock.Now at the point of
// access, never the result of a background job having run.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var SystemClock Clock = systemClock{}
