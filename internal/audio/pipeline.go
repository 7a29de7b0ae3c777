package audio

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Direction selects which voice path the pipeline opens
type Direction uint8

const (
	DIR_RX Direction = iota // Radio to speaker
	DIR_TX                  // Microphone to radio
)

const queueLength = 16

// Pipeline is the codec side of the engine: it owns one audio path at a
// time and moves frames between the engine and the local source and sink.
type Pipeline struct {
	router *Router
	source Source
	sink   Sink
	log    *log.Logger

	mu     sync.Mutex
	pathID PathID
	open   bool
	cancel context.CancelFunc
	wg     sync.WaitGroup

	encoded *FrameQueue // Microphone frames waiting to be transmitted
	decoded *FrameQueue // Received frames waiting for the speaker
}

// NewPipeline creates a pipeline on top of router
func NewPipeline(router *Router, source Source, sink Sink, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		router:  router,
		source:  source,
		sink:    sink,
		log:     logger,
		encoded: NewFrameQueue(queueLength, "encode"),
		decoded: NewFrameQueue(queueLength, "decode"),
	}
}

// RequestPath opens the voice path for dir. It returns false when a higher
// priority user holds the endpoints.
func (p *Pipeline) RequestPath(dir Direction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open && p.router.IsOpen(p.pathID) {
		return true
	}

	var id PathID
	var err error
	switch dir {
	case DIR_TX:
		id, err = p.router.Request(ENDPOINT_MIC, ENDPOINT_RTX, PRIO_TX)
	default:
		id, err = p.router.Request(ENDPOINT_RTX, ENDPOINT_SPK, PRIO_RX)
	}
	if err != nil {
		p.log.Debug("audio path refused", "err", err)
		return false
	}
	p.pathID = id
	p.open = true
	return true
}

// PathOpen reports whether the path is still held
func (p *Pipeline) PathOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open && p.router.IsOpen(p.pathID)
}

// ReleasePath gives the path back to the router
func (p *Pipeline) ReleasePath() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		p.router.Release(p.pathID)
		p.open = false
	}
}

func (p *Pipeline) start(worker func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.encoded.Reopen()
	p.decoded.Reopen()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker(ctx)
	}()
}

// StartEncode starts pulling microphone frames into the encode queue
func (p *Pipeline) StartEncode() {
	p.start(func(ctx context.Context) {
		for {
			f, err := p.source.ReadFrame(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.log.Warn("audio source failed", "err", err)
				}
				p.encoded.Close()
				return
			}
			p.encoded.Push(f)
		}
	})
}

// StartDecode starts draining the decode queue into the sink
func (p *Pipeline) StartDecode() {
	p.start(func(ctx context.Context) {
		for {
			f, ok := p.decoded.Pop()
			if !ok {
				return
			}
			if err := p.sink.WriteFrame(f); err != nil {
				p.log.Warn("audio sink failed", "err", err)
			}
		}
	})
}

// Stop halts the running encode or decode worker and drops queued frames
func (p *Pipeline) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	p.encoded.Close()
	p.decoded.Close()
	p.wg.Wait()
	p.encoded.Clear()
	p.decoded.Clear()
}

// PushFrame queues a received frame for playback
func (p *Pipeline) PushFrame(f Frame) bool {
	return p.decoded.Push(f)
}

// PopFrame waits for the next microphone frame. It returns false once
// encoding has stopped.
func (p *Pipeline) PopFrame() (Frame, bool) {
	return p.encoded.Pop()
}
