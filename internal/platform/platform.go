// Package platform provides the push-to-talk input, calibration data and
// status indicators the operating mode engine needs from the hardware.
package platform

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Indicator is a status light
type Indicator uint8

const (
	INDICATOR_RX Indicator = iota // Lit while valid audio is being received
	INDICATOR_TX                  // Lit for the whole transmission
)

func (i Indicator) String() string {
	if i == INDICATOR_TX {
		return "tx"
	}
	return "rx"
}

// Manual is a platform driven from software: PTT is set by the caller and
// indicators are logged.
type Manual struct {
	ptt      atomic.Bool
	txInvert bool
	log      *log.Logger

	mu         sync.Mutex
	indicators [2]bool
	changes    int
}

// NewManual creates a software platform
func NewManual(txInvert bool, logger *log.Logger) *Manual {
	if logger == nil {
		logger = log.Default()
	}
	return &Manual{txInvert: txInvert, log: logger}
}

// SetPTT presses or releases push-to-talk
func (m *Manual) SetPTT(on bool) {
	m.ptt.Store(on)
}

// PTT reports the push-to-talk state
func (m *Manual) PTT() bool {
	return m.ptt.Load()
}

// TxPhaseInverted returns the transmit phase inversion calibration
func (m *Manual) TxPhaseInverted() bool {
	return m.txInvert
}

// SetIndicator switches a status light
func (m *Manual) SetIndicator(i Indicator, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indicators[i] == on {
		return
	}
	m.indicators[i] = on
	m.changes++
	m.log.Debug("indicator", "led", i, "on", on)
}

// Indicator returns the state of a status light
func (m *Manual) Indicator(i Indicator) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indicators[i]
}

// Changes returns how many times any indicator changed state
func (m *Manual) Changes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes
}
