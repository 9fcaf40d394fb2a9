package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze the run timestamp via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for run timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// RunTimestamp returns the current instant in UTC, used to stamp a pipeline run.
func RunTimestamp() time.Time {
	return clock.Now().UTC()
}
