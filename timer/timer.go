// Package timer provides the scheduling primitive the countdowns run on.
// Production code uses the wall clock; tests drive a Fake by hand so that
// a full countdown never waits on real time.
package timer

import (
	"fmt"
	"time"
)

// Timer is a handle to one scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or was stopped before.
	Stop() bool
}

// Clock schedules callbacks without blocking the caller.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns the wall clock. Callbacks run on their own goroutine.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FormatTimeRemaining formats remaining time as MM:SS
func FormatTimeRemaining(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}
	totalSeconds := int(duration.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatSeconds formats a whole number of seconds as MM:SS
func FormatSeconds(seconds int) string {
	return FormatTimeRemaining(time.Duration(seconds) * time.Second)
}
