// Package audio routes compressed voice frames between the operating mode
// engine and the local audio endpoints.
package audio

import (
	"errors"
	"fmt"
	"sync"
)

// Endpoint is an audio source or sink
type Endpoint uint8

const (
	ENDPOINT_MIC Endpoint = iota // Local microphone (encoded by the codec)
	ENDPOINT_SPK                 // Local speaker (decoded by the codec)
	ENDPOINT_RTX                 // Radio baseband
	ENDPOINT_MCU                 // Internal prompts and tones
)

func (e Endpoint) String() string {
	switch e {
	case ENDPOINT_MIC:
		return "mic"
	case ENDPOINT_SPK:
		return "speaker"
	case ENDPOINT_RTX:
		return "rtx"
	case ENDPOINT_MCU:
		return "mcu"
	}
	return fmt.Sprintf("endpoint(%d)", uint8(e))
}

// Priority orders competing requests for the same endpoint
type Priority uint8

const (
	PRIO_BEEP Priority = iota + 1
	PRIO_PROMPT
	PRIO_RX
	PRIO_TX
)

// PathID identifies an open audio path
type PathID uint32

var ErrPathBusy = errors.New("audio path busy")

type path struct {
	source   Endpoint
	sink     Endpoint
	priority Priority
}

// Router grants audio paths. A request preempts existing paths sharing an
// endpoint only if it has strictly higher priority.
type Router struct {
	mu     sync.Mutex
	nextID PathID
	paths  map[PathID]path
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{paths: make(map[PathID]path)}
}

func (p path) overlaps(o path) bool {
	return p.source == o.source || p.sink == o.sink
}

// Request opens a path from source to sink
func (r *Router) Request(source, sink Endpoint, prio Priority) (PathID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := path{source: source, sink: sink, priority: prio}

	var preempt []PathID
	for id, p := range r.paths {
		if !p.overlaps(want) {
			continue
		}
		if p.priority >= prio {
			return 0, fmt.Errorf("%w: %s->%s held at priority %d", ErrPathBusy, p.source, p.sink, p.priority)
		}
		preempt = append(preempt, id)
	}
	for _, id := range preempt {
		delete(r.paths, id)
	}

	r.nextID++
	r.paths[r.nextID] = want
	return r.nextID, nil
}

// Release closes a path. Releasing an unknown or preempted path is a no-op.
func (r *Router) Release(id PathID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, id)
}

// IsOpen reports whether a path is still held
func (r *Router) IsOpen(id PathID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.paths[id]
	return ok
}

// Active returns the number of open paths
func (r *Router) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}
