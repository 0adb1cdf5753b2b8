package services

import "time"

// Scheduler runs deferred work: the demo OTP notice and the status clear.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

type timeScheduler struct{}

func NewScheduler() Scheduler {
	return timeScheduler{}
}

func (timeScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
