package timer

import "time"

// Timer counts ticks towards a timeout. It is driven either explicitly with
// Clock (one call per processed frame) or from the wall clock with ClockAuto.
type Timer struct {
	ticksPerSec  int
	timeoutTicks int
	currentTicks int
	running      bool
	startTime    time.Time
}

// NewTimer creates a timer with the given tick resolution and timeout
func NewTimer(ticksPerSec int, timeout time.Duration) *Timer {
	t := &Timer{
		ticksPerSec: ticksPerSec,
	}
	t.SetTimeout(timeout)
	return t
}

// SetTimeout sets the timeout duration
func (t *Timer) SetTimeout(timeout time.Duration) {
	t.timeoutTicks = int(timeout.Milliseconds()) * t.ticksPerSec / 1000
}

// TimeoutTicks returns the timeout expressed in ticks
func (t *Timer) TimeoutTicks() int {
	return t.timeoutTicks
}

// IsRunning returns true if the timer is counting
func (t *Timer) IsRunning() bool {
	return t.running
}

// Start (re)starts the timer from zero
func (t *Timer) Start() {
	t.currentTicks = 0
	t.running = true
	t.startTime = time.Now()
}

// Stop stops the timer and clears the elapsed count
func (t *Timer) Stop() {
	t.running = false
	t.currentTicks = 0
}

// HasExpired reports whether the timeout has been reached
func (t *Timer) HasExpired() bool {
	// A zero timeout never expires
	if t.timeoutTicks == 0 {
		return false
	}
	return t.currentTicks >= t.timeoutTicks
}

// Clock advances the timer by the given number of ticks
func (t *Timer) Clock(ticks int) {
	if !t.running {
		return
	}

	t.currentTicks += ticks

	// Auto-stop once expired
	if t.currentTicks >= t.timeoutTicks {
		t.currentTicks = t.timeoutTicks
		t.running = false
	}
}

// ClockAuto advances the timer from the wall clock time since Start
func (t *Timer) ClockAuto() {
	if !t.running {
		return
	}

	elapsed := time.Since(t.startTime)
	elapsedTicks := int(elapsed.Milliseconds()) * t.ticksPerSec / 1000

	if elapsedTicks >= t.timeoutTicks {
		t.running = false
		t.currentTicks = t.timeoutTicks
	} else {
		t.currentTicks = elapsedTicks
	}
}

// Elapsed returns the elapsed time
func (t *Timer) Elapsed() time.Duration {
	return time.Duration(t.currentTicks) * time.Second / time.Duration(t.ticksPerSec)
}

// Remaining returns the time left before expiry
func (t *Timer) Remaining() time.Duration {
	remaining := t.timeoutTicks - t.currentTicks
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Second / time.Duration(t.ticksPerSec)
}
