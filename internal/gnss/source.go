package gnss

import (
	"sync"
	"time"
)

// Source provides the current position fix
type Source interface {
	Position() Fix
}

// Static is a fixed station position
type Static struct {
	fix Fix
}

// NewStatic creates a source that always reports the given position
func NewStatic(latitude, longitude, altitude float64) *Static {
	return &Static{fix: Fix{
		Latitude:  latitude,
		Longitude: longitude,
		Altitude:  altitude,
		Type:      FIX_3D,
	}}
}

// Position returns the configured position stamped with the current time
func (s *Static) Position() Fix {
	f := s.fix
	f.Time = time.Now()
	return f
}

// Guarded holds a fix written by a receiver goroutine and read by the
// operating mode engine.
type Guarded struct {
	mu  sync.RWMutex
	fix Fix
}

// NewGuarded creates an empty guarded source
func NewGuarded() *Guarded {
	return &Guarded{}
}

// Set replaces the current fix
func (g *Guarded) Set(f Fix) {
	g.mu.Lock()
	g.fix = f
	g.mu.Unlock()
}

// Invalidate marks the fix as lost
func (g *Guarded) Invalidate() {
	g.mu.Lock()
	g.fix.Type = FIX_NONE
	g.mu.Unlock()
}

// Position returns a copy of the current fix
func (g *Guarded) Position() Fix {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fix
}
