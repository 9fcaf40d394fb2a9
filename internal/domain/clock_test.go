package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestSetClock(t *testing.T) {
	t.Run("set custom clock", func(t *testing.T) {
		fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(fixedTime))
		defer SetClock(nil)

		assert.Equal(t, fixedTime, RunTimestamp())
	})

	t.Run("run timestamp is UTC", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		SetClock(clockwork.NewFakeClockAt(time.Date(2025, 12, 17, 12, 37, 28, 0, tokyo)))
		defer SetClock(nil)

		got := RunTimestamp()
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, time.Date(2025, 12, 17, 3, 37, 28, 0, time.UTC), got)
	})

	t.Run("reset to real clock", func(t *testing.T) {
		SetClock(clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		SetClock(nil)

		assert.True(t, time.Since(RunTimestamp()) < time.Second)
	})
}
