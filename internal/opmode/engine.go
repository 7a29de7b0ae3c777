// Package opmode runs the M17 operating mode: a state machine stepped once
// per tick that receives voice, text, positions and short messages, and
// transmits voice streams and short messages.
package opmode

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/metadata"
	"github.com/dbehnke/m17link/internal/sms"
)

// State is the operating mode state
type State uint8

const (
	STATE_OFF State = iota
	STATE_RX
	STATE_TX_STREAM
	STATE_TX_PACKET
)

func (s State) String() string {
	switch s {
	case STATE_RX:
		return "RX"
	case STATE_TX_STREAM:
		return "TX_STREAM"
	case STATE_TX_PACKET:
		return "TX_PACKET"
	}
	return "OFF"
}

func (s State) opStatus() OpStatus {
	switch s {
	case STATE_RX:
		return OPSTATUS_RX
	case STATE_TX_STREAM, STATE_TX_PACKET:
		return OPSTATUS_TX
	}
	return OPSTATUS_OFF
}

var errMissingDevice = errors.New("missing device")

// Engine is the operating mode state machine. Update must be called from
// a single goroutine; message accessors may be used from any goroutine.
type Engine struct {
	dev Devices
	log *log.Logger

	enabled bool
	state   State
	startRx bool
	lit     indicators

	// Receive
	locked      bool
	audioValid  bool
	relayActive bool
	lastHeard   string
	text        metadata.TextReassembler
	reassembler *sms.Reassembler
	store       *sms.Store

	// Transmit
	rotator *metadata.Rotator
	txLSF   m17.LinkSetupFrame
}

// New creates a disabled engine
func New(dev Devices, logger *log.Logger) (*Engine, error) {
	switch {
	case dev.Demodulator == nil:
		return nil, fmt.Errorf("%w: demodulator", errMissingDevice)
	case dev.Modulator == nil:
		return nil, fmt.Errorf("%w: modulator", errMissingDevice)
	case dev.Codec == nil:
		return nil, fmt.Errorf("%w: codec", errMissingDevice)
	case dev.Platform == nil:
		return nil, fmt.Errorf("%w: platform", errMissingDevice)
	}
	if logger == nil {
		logger = log.Default()
	}
	dev.setDefaults()

	return &Engine{
		dev:         dev,
		log:         logger,
		reassembler: sms.NewReassembler(),
		store:       sms.NewStore(),
		rotator:     metadata.NewRotator(dev.BeaconInterval),
	}, nil
}

// Enable initialises the radio devices and arms reception
func (e *Engine) Enable() error {
	if e.enabled {
		return nil
	}

	if err := e.dev.Demodulator.Init(); err != nil {
		return fmt.Errorf("demodulator init: %w", err)
	}
	if err := e.dev.Modulator.Init(); err != nil {
		e.dev.Demodulator.Terminate()
		return fmt.Errorf("modulator init: %w", err)
	}

	e.dev.Decoder.Reset()
	e.dev.Encoder.Reset()
	e.resetReceive()
	e.state = STATE_OFF
	e.startRx = true
	e.enabled = true

	e.log.Info("M17 operating mode enabled")
	return nil
}

// Disable releases every resource held in the current state and shuts the
// radio devices down
func (e *Engine) Disable() {
	if !e.enabled {
		return
	}

	switch e.state {
	case STATE_RX:
		e.exitRX(nil)
	case STATE_TX_STREAM:
		e.abortStream()
	case STATE_TX_PACKET:
		// Nothing has been keyed yet
	}

	e.dev.Demodulator.Terminate()
	e.dev.Modulator.Terminate()

	e.state = STATE_OFF
	e.startRx = false
	e.resetReceive()
	e.applyIndicators()
	e.enabled = false

	e.log.Info("M17 operating mode disabled")
}

// State returns the current state
func (e *Engine) State() State {
	return e.state
}

// Enabled reports whether the engine is running
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Update runs one step of the state machine. status may have been changed
// by the caller since the previous step.
func (e *Engine) Update(status *Status, configChanged bool) {
	if !e.enabled {
		return
	}

	if configChanged {
		e.log.Debug("configuration changed", "source", status.Source, "can", status.CAN)
		e.relayActive = false
		e.text.Reset()
	}

	ptt := e.dev.Platform.PTT()

	switch e.state {
	case STATE_OFF:
		e.offState(status, ptt)
	case STATE_RX:
		e.rxState(status, ptt)
	case STATE_TX_STREAM:
		e.txStreamState(status, ptt)
	case STATE_TX_PACKET:
		e.txPacketState(status)
	}

	status.OpStatus = e.state.opStatus()
	e.applyIndicators()
}

func (e *Engine) setState(next State) {
	if next == e.state {
		return
	}
	e.log.Debug("state change", "from", e.state, "to", next)
	e.state = next
}

func (e *Engine) offState(status *Status, ptt bool) {
	switch {
	case e.startRx:
		e.startRx = false
		e.enterRX()

	case ptt && !status.TxDisable:
		e.enterTxStream(status)

	case status.PendingSMS && !status.TxDisable:
		e.setState(STATE_TX_PACKET)

	case !ptt && !status.PendingSMS:
		// Idle: listen again
		e.startRx = true

	default:
		e.dev.Sleep(e.dev.IdleSleep)
	}
}

// Messages returns the received message store
func (e *Engine) Messages() *sms.Store {
	return e.store
}

// MessageCount returns the number of stored messages
func (e *Engine) MessageCount() int {
	return e.store.Len()
}

// GetMessage returns sender and body of stored message i
func (e *Engine) GetMessage(i int) (sender, body string, ok bool) {
	msg, ok := e.store.Get(i)
	if !ok {
		return "", "", false
	}
	return msg.Sender, msg.Body, true
}

// DeleteMessage removes stored message i
func (e *Engine) DeleteMessage(i int) bool {
	return e.store.Delete(i)
}
