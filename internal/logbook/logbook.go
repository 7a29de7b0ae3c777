// Package logbook records the stations heard and the messages received by
// the operating mode. Writes are queued to a background goroutine so the
// engine never waits on the database.
package logbook

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/dbehnke/m17link/internal/database"
	"github.com/dbehnke/m17link/internal/opmode"
	"github.com/dbehnke/m17link/internal/sms"
)

// Config holds logbook options
type Config struct {
	CacheSize int // Maximum stations kept in memory (default: 500)
	QueueSize int // Pending database writes before new ones are dropped (default: 64)
}

// HeardStore persists heard stations
type HeardStore interface {
	Record(station *database.HeardStation) error
	Get(callsign string) (*database.HeardStation, error)
}

// MessageArchive persists received messages
type MessageArchive interface {
	Archive(msg *database.ArchivedMessage) error
}

type write func() error

// Logbook observes the engine. Either store may be nil for a memory-only log.
type Logbook struct {
	heard    HeardStore
	messages MessageArchive
	log      *log.Logger

	mutex     sync.RWMutex
	cache     map[string]database.HeardStation
	cacheSize int
	received  uint32
	dropped   uint32
	failures  uint32

	queue   chan write
	done    chan struct{}
	running bool
}

// New creates a logbook
func New(heard HeardStore, messages MessageArchive, config Config, logger *log.Logger) *Logbook {
	if config.CacheSize <= 0 {
		config.CacheSize = 500
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Logbook{
		heard:     heard,
		messages:  messages,
		log:       logger,
		cache:     make(map[string]database.HeardStation),
		cacheSize: config.CacheSize,
		queue:     make(chan write, config.QueueSize),
	}
}

// Start launches the database writer
func (l *Logbook) Start() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.done = make(chan struct{})
	go l.writer(l.queue, l.done)
}

// Stop flushes queued writes and stops the writer
func (l *Logbook) Stop() {
	l.mutex.Lock()
	if !l.running {
		l.mutex.Unlock()
		return
	}
	l.running = false
	queue, done := l.queue, l.done
	l.queue = make(chan write, cap(queue))
	l.mutex.Unlock()

	close(queue)
	<-done
}

// IsRunning reports whether the writer goroutine is active
func (l *Logbook) IsRunning() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.running
}

func (l *Logbook) writer(queue <-chan write, done chan<- struct{}) {
	defer close(done)
	for w := range queue {
		if err := w(); err != nil {
			l.mutex.Lock()
			l.failures++
			l.mutex.Unlock()
			l.log.Warn("logbook write failed", "err", err)
		}
	}
}

// enqueue hands a write to the writer, dropping it if the queue is full
// or the writer is not running. Called with the mutex held.
func (l *Logbook) enqueue(w write) {
	if !l.running {
		return
	}
	select {
	case l.queue <- w:
	default:
		l.dropped++
	}
}

// StationHeard records a station
func (l *Logbook) StationHeard(ev opmode.HeardEvent) {
	callsign := strings.ToUpper(ev.Source)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	station, ok := l.cache[callsign]
	if !ok {
		l.evictOldest()
		station = database.HeardStation{Callsign: callsign, FirstHeard: ev.At}
	}
	station.LastDestination = ev.Destination
	station.Relay = ev.Relay
	station.Reflector = ev.Reflector
	station.CAN = ev.CAN
	station.Packet = ev.Packet
	station.LastHeard = ev.At
	station.Sightings++
	l.cache[callsign] = station

	if l.heard != nil {
		record := station
		l.enqueue(func() error { return l.heard.Record(&record) })
	}
}

// MessageReceived archives a message
func (l *Logbook) MessageReceived(msg sms.Message) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.received++

	if l.messages != nil {
		archived := database.ArchivedMessage{
			Sender:     msg.Sender,
			Body:       msg.Body,
			Checksum:   msg.Checksum,
			ReceivedAt: msg.ReceivedAt,
		}
		l.enqueue(func() error { return l.messages.Archive(&archived) })
	}
}

// evictOldest makes room for one station. Called with the mutex held.
func (l *Logbook) evictOldest() {
	if len(l.cache) < l.cacheSize {
		return
	}

	var oldest string
	var oldestAt time.Time
	for cs, st := range l.cache {
		if oldest == "" || st.LastHeard.Before(oldestAt) {
			oldest, oldestAt = cs, st.LastHeard
		}
	}
	delete(l.cache, oldest)
}

// Lookup returns the last sighting of a station, falling back to the
// database when it is no longer cached
func (l *Logbook) Lookup(callsign string) (database.HeardStation, bool) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))

	l.mutex.RLock()
	station, ok := l.cache[callsign]
	l.mutex.RUnlock()
	if ok {
		return station, true
	}

	if l.heard == nil {
		return database.HeardStation{}, false
	}
	found, err := l.heard.Get(callsign)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.log.Debug("heard lookup failed", "callsign", callsign, "err", err)
		}
		return database.HeardStation{}, false
	}
	return *found, true
}

// Recent returns up to limit cached stations, most recently heard first
func (l *Logbook) Recent(limit int) []database.HeardStation {
	l.mutex.RLock()
	out := make([]database.HeardStation, 0, len(l.cache))
	for _, st := range l.cache {
		out = append(out, st)
	}
	l.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastHeard.After(out[j].LastHeard)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats returns logbook counters
func (l *Logbook) Stats() (stations int, messages, dropped, failures uint32) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.cache), l.received, l.dropped, l.failures
}
