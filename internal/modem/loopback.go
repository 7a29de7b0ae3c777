package modem

import (
	"fmt"
	"sync"
	"time"
)

// LoopbackPort is one end of an in-memory baseband link. Frames sent on one
// port are received by the other while it is sampling.
type LoopbackPort struct {
	mu    sync.Mutex
	peer  *LoopbackPort
	inbox [][]byte

	rx       receiver
	txInvert bool
	keyed    bool
	sent     int
}

// NewLoopbackPair creates two connected ports
func NewLoopbackPair(lockTimeout time.Duration) (*LoopbackPort, *LoopbackPort) {
	a := &LoopbackPort{rx: receiver{lock: newLockTracker(lockTimeout)}}
	b := &LoopbackPort{rx: receiver{lock: newLockTracker(lockTimeout)}}
	a.peer, b.peer = b, a
	return a, b
}

func (p *LoopbackPort) deliver(frame []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Nothing is heard while the receiver is off
	if !p.rx.sampling {
		return
	}
	p.inbox = append(p.inbox, append([]byte(nil), frame...))
}

// Init is a no-op
func (p *LoopbackPort) Init() error { return nil }

// Terminate drops all pending frames
func (p *LoopbackPort) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbox = nil
	p.rx.stop()
}

// StartSampling starts accepting frames from the peer
func (p *LoopbackPort) StartSampling() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.start()
	return nil
}

// StopSampling stops accepting frames and drops lock
func (p *LoopbackPort) StopSampling() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.stop()
	p.inbox = nil
}

// Locked reports whether frames are arriving
func (p *LoopbackPort) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rx.lock.locked()
}

// FrameReady reports whether a new frame is available
func (p *LoopbackPort) FrameReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.inbox) > 0 {
		frame := p.inbox[0]
		p.inbox = p.inbox[1:]
		if p.rx.accept(frame) {
			return true
		}
	}
	return false
}

// Frame returns the last received frame
func (p *LoopbackPort) Frame() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rx.frame
}

// Pending returns the number of frames waiting to be read
func (p *LoopbackPort) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inbox)
}

// Sent returns the number of frames transmitted on this port
func (p *LoopbackPort) Sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// SetPhaseInversion selects transmit phase inversion
func (p *LoopbackPort) SetPhaseInversion(invert bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txInvert = invert
}

// SetRxInversion selects receive phase inversion
func (p *LoopbackPort) SetRxInversion(invert bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.invert = invert
}

// Start keys the transmitter
func (p *LoopbackPort) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyed = true
	return nil
}

// SendPreamble sends the transmission preamble
func (p *LoopbackPort) SendPreamble() error {
	return p.SendFrame(Preamble())
}

// SendFrame passes one frame to the peer
func (p *LoopbackPort) SendFrame(frame []byte) error {
	p.mu.Lock()
	if !p.keyed {
		p.mu.Unlock()
		return fmt.Errorf("send frame: transmitter not keyed")
	}
	if p.txInvert {
		frame = invert(frame)
	}
	p.sent++
	p.mu.Unlock()

	p.peer.deliver(frame)
	return nil
}

// Stop unkeys the transmitter
func (p *LoopbackPort) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyed = false
	return nil
}
