package realtime

import "time"

// Timer is a cancelable single-shot timer handle.
type Timer interface {
	// Stop cancels the timer. Reports whether it was still pending.
	Stop() bool
}

// Scheduler schedules single-shot callbacks. The Manager holds at most one
// pending timer (the reconnect backoff timer); injecting a Scheduler lets
// tests drive backoff without real timers.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemScheduler schedules on real time via time.AfterFunc.
var SystemScheduler Scheduler = systemScheduler{}
