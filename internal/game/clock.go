package game

import "time"

// Clock supplies the current time and one-shot timers to sessions.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f in its own goroutine after d and returns a function
	// that cancels it.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
