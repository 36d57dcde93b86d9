package service

import "time"

// Clock abstracts wall-clock time so time-dependent logic (subscription
// periods, token expiry) can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
