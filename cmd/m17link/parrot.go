package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/modem"
)

const (
	PARROT_POLL  = 5 * time.Millisecond
	PARROT_DELAY = 500 * time.Millisecond
	PARROT_LIMIT = 3000 // frames, two minutes of voice
)

// parrot sits on the far end of the loopback link and repeats every
// transmission it hears back to the station
type parrot struct {
	port    *modem.LoopbackPort
	decoder *m17.Decoder
	log     *log.Logger
	frames  [][]byte
}

func newParrot(port *modem.LoopbackPort, logger *log.Logger) *parrot {
	return &parrot{port: port, decoder: m17.NewDecoder(), log: logger}
}

// Run listens until ctx is cancelled
func (p *parrot) Run(ctx context.Context) {
	p.port.StartSampling()
	defer p.port.Terminate()

	ticker := time.NewTicker(PARROT_POLL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for p.port.FrameReady() {
			if p.record(p.port.Frame()) {
				p.replay(ctx)
			}
		}

		// A transmission cut short without EOT is still repeated
		if len(p.frames) > 0 && !p.port.Locked() {
			p.replay(ctx)
		}
	}
}

// record stores one frame and reports whether the transmission ended
func (p *parrot) record(frame []byte) bool {
	ft, err := p.decoder.Decode(frame)
	if err != nil || ft == m17.FRAME_UNKNOWN {
		return false
	}
	if len(p.frames) < PARROT_LIMIT {
		p.frames = append(p.frames, append([]byte(nil), frame...))
	}
	return ft == m17.FRAME_EOT
}

func (p *parrot) replay(ctx context.Context) {
	frames := p.frames
	p.frames = nil
	p.decoder.Reset()

	select {
	case <-ctx.Done():
		return
	case <-time.After(PARROT_DELAY):
	}

	p.log.Info("repeating transmission", "frames", len(frames))
	if err := p.port.Start(); err != nil {
		p.log.Warn("parrot key failed", "err", err)
		return
	}
	defer p.port.Stop()

	if err := p.port.SendPreamble(); err != nil {
		p.log.Warn("parrot preamble failed", "err", err)
		return
	}
	for _, frame := range frames {
		if err := p.port.SendFrame(frame); err != nil {
			p.log.Warn("parrot send failed", "err", err)
			return
		}
	}
	if ft, _ := p.decoder.Decode(frames[len(frames)-1]); ft != m17.FRAME_EOT {
		p.port.SendFrame(m17.NewEncoder().EncodeEOT())
	}
	p.decoder.Reset()
}
