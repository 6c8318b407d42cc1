package game

import (
	"time"
)

// Timer is a pending continuation. Stop reports whether it prevented the
// call.
type Timer interface {
	Stop() bool
}

// Scheduler runs delayed continuations and provides the clock used for
// deadlines and expiry.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock schedules on real timers.
func WallClock() Scheduler { return wallClock{} }
