// SPDX-License-Identifier: MIT

// Package sched provides injectable time and timer services so that
// components owning timers can be tested without real sleeps.
package sched

import "time"

// Clock abstracts time operations for testability.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Timer is a handle to a scheduled one-shot callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the callback was
	// prevented from running. Stopping an already-fired or
	// already-stopped timer is a no-op.
	Stop() bool
}

// Service schedules one-shot callbacks.
type Service interface {
	Clock
	AfterFunc(d time.Duration, fn func()) Timer
}

type realService struct {
	RealClock
}

// NewService returns a Service backed by the time package.
func NewService() Service { return realService{} }

func (realService) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
