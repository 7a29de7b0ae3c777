// Package modem provides baseband transports for the operating mode engine.
// FEC and symbol mapping are out of scope: frames travel as bytes, with the
// transport standing in for the RF demodulator and modulator.
package modem

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/timer"
)

const (
	PREAMBLE_BYTE   byte = 0x77
	PREAMBLE_LENGTH      = 48 // 40 ms at 4800 baud

	// DEFAULT_LOCK_TIMEOUT is how long lock is held without a received frame
	DEFAULT_LOCK_TIMEOUT = 200 * time.Millisecond

	maxFrameLength = 256
)

// Preamble returns the preamble sent before a transmission
func Preamble() []byte {
	return bytes.Repeat([]byte{PREAMBLE_BYTE}, PREAMBLE_LENGTH)
}

func isPreamble(frame []byte) bool {
	return len(frame) > 0 && bytes.Count(frame, []byte{PREAMBLE_BYTE}) == len(frame)
}

// hasSync reports whether a frame starts with one of the M17 sync words
func hasSync(frame []byte) bool {
	if len(frame) < m17.SYNC_LENGTH {
		return false
	}
	switch binary.BigEndian.Uint16(frame) {
	case m17.SYNC_LSF, m17.SYNC_STREAM, m17.SYNC_PACKET, m17.SYNC_EOT:
		return true
	}
	return false
}

// invert flips every bit, the byte-level stand-in for a baseband phase inversion
func invert(frame []byte) []byte {
	out := make([]byte, len(frame))
	for i, b := range frame {
		out[i] = ^b
	}
	return out
}

// lockTracker holds demodulator lock while frames keep arriving
type lockTracker struct {
	timer *timer.Timer
}

func newLockTracker(timeout time.Duration) *lockTracker {
	if timeout <= 0 {
		timeout = DEFAULT_LOCK_TIMEOUT
	}
	return &lockTracker{timer: timer.NewTimer(1000, timeout)}
}

func (l *lockTracker) seen() {
	l.timer.Start()
}

func (l *lockTracker) locked() bool {
	l.timer.ClockAuto()
	return l.timer.IsRunning()
}

func (l *lockTracker) reset() {
	l.timer.Stop()
}

// receiver turns raw baseband chunks into frames and lock state
type receiver struct {
	lock     *lockTracker
	invert   bool
	sampling bool
	frame    []byte
}

// accept processes one received chunk and reports whether it is a frame
func (r *receiver) accept(raw []byte) bool {
	if !r.sampling {
		return false
	}
	if r.invert {
		raw = invert(raw)
	}
	if isPreamble(raw) {
		r.lock.seen()
		return false
	}
	if !hasSync(raw) {
		return false
	}
	r.lock.seen()
	r.frame = append(r.frame[:0], raw...)
	return true
}

func (r *receiver) start() {
	r.sampling = true
}

func (r *receiver) stop() {
	r.sampling = false
	r.lock.reset()
}
