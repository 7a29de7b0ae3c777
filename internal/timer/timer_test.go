package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerTicks(t *testing.T) {
	tests := []struct {
		name        string
		ticksPerSec int
		timeout     time.Duration
		ticks       int
		expired     bool
	}{
		{name: "beacon interval not reached", ticksPerSec: 25, timeout: 5 * time.Second, ticks: 124, expired: false},
		{name: "beacon interval reached", ticksPerSec: 25, timeout: 5 * time.Second, ticks: 125, expired: true},
		{name: "millisecond resolution", ticksPerSec: 1000, timeout: 200 * time.Millisecond, ticks: 250, expired: true},
		{name: "zero timeout never expires", ticksPerSec: 25, timeout: 0, ticks: 1000, expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTimer(tt.ticksPerSec, tt.timeout)
			tm.Start()
			for i := 0; i < tt.ticks; i++ {
				tm.Clock(1)
			}
			assert.Equal(t, tt.expired, tm.HasExpired())
		})
	}
}

func TestTimerNotRunningDoesNotCount(t *testing.T) {
	tm := NewTimer(25, time.Second)
	tm.Clock(100)
	assert.False(t, tm.HasExpired())
	assert.Equal(t, time.Duration(0), tm.Elapsed())

	tm.Start()
	tm.Clock(10)
	assert.Equal(t, 400*time.Millisecond, tm.Elapsed())
	assert.Equal(t, 600*time.Millisecond, tm.Remaining())

	tm.Stop()
	assert.False(t, tm.IsRunning())
	assert.False(t, tm.HasExpired())
}

func TestTimerRestart(t *testing.T) {
	tm := NewTimer(25, time.Second)
	tm.Start()
	tm.Clock(25)
	assert.True(t, tm.HasExpired())
	assert.False(t, tm.IsRunning())

	tm.Start()
	assert.False(t, tm.HasExpired())
	assert.True(t, tm.IsRunning())
}
