package logbook

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dbehnke/m17link/internal/database"
	"github.com/dbehnke/m17link/internal/opmode"
	"github.com/dbehnke/m17link/internal/sms"
)

type memoryHeard struct {
	mu      sync.Mutex
	records []database.HeardStation
	fail    bool
}

func (m *memoryHeard) Record(st *database.HeardStation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.records = append(m.records, *st)
	return nil
}

func (m *memoryHeard) Get(callsign string) (*database.HeardStation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Callsign == callsign {
			st := m.records[i]
			return &st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var _ opmode.Observer = (*Logbook)(nil)

func heard(src string, at time.Time) opmode.HeardEvent {
	return opmode.HeardEvent{Source: src, Destination: "ALL", At: at}
}

func TestStationHeardCaches(t *testing.T) {
	lb := New(nil, nil, Config{}, log.New(io.Discard))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lb.StationHeard(heard("ab1cd", base))
	lb.StationHeard(heard("W1XYZ", base.Add(time.Minute)))
	lb.StationHeard(heard("AB1CD", base.Add(2*time.Minute)))

	st, ok := lb.Lookup("ab1cd")
	require.True(t, ok)
	assert.Equal(t, 2, st.Sightings)
	assert.True(t, st.FirstHeard.Equal(base))

	recent := lb.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "AB1CD", recent[0].Callsign)
	assert.Equal(t, "W1XYZ", recent[1].Callsign)

	_, ok = lb.Lookup("N0CALL")
	assert.False(t, ok)
}

func TestCacheEvictsOldest(t *testing.T) {
	lb := New(nil, nil, Config{CacheSize: 2}, log.New(io.Discard))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lb.StationHeard(heard("AB1CD", base))
	lb.StationHeard(heard("W1XYZ", base.Add(time.Minute)))
	lb.StationHeard(heard("N0CALL", base.Add(2*time.Minute)))

	_, ok := lb.Lookup("AB1CD")
	assert.False(t, ok)
	stations, _, _, _ := lb.Stats()
	assert.Equal(t, 2, stations)
}

func TestWritesReachStore(t *testing.T) {
	store := &memoryHeard{}
	lb := New(store, nil, Config{}, log.New(io.Discard))
	lb.Start()
	assert.True(t, lb.IsRunning())

	lb.StationHeard(heard("AB1CD", time.Now()))
	lb.Stop()
	assert.False(t, lb.IsRunning())

	require.Len(t, store.records, 1)
	assert.Equal(t, "AB1CD", store.records[0].Callsign)
}

func TestLookupFallsBackToStore(t *testing.T) {
	store := &memoryHeard{records: []database.HeardStation{{Callsign: "AB1CD", LastDestination: "ALL"}}}
	lb := New(store, nil, Config{}, log.New(io.Discard))

	st, ok := lb.Lookup("AB1CD")
	require.True(t, ok)
	assert.Equal(t, "ALL", st.LastDestination)
}

func TestWriteFailuresCounted(t *testing.T) {
	store := &memoryHeard{fail: true}
	lb := New(store, nil, Config{}, log.New(io.Discard))
	lb.Start()

	lb.StationHeard(heard("AB1CD", time.Now()))
	lb.Stop()

	_, _, _, failures := lb.Stats()
	assert.Equal(t, uint32(1), failures)
}

func TestNotRunningSkipsWrites(t *testing.T) {
	store := &memoryHeard{}
	lb := New(store, nil, Config{}, log.New(io.Discard))

	lb.StationHeard(heard("AB1CD", time.Now()))
	assert.Empty(t, store.records)
}

func TestSQLiteBackedLogbook(t *testing.T) {
	db, err := database.NewDB(database.Config{Path: filepath.Join(t.TempDir(), "logbook.db")}, nil)
	require.NoError(t, err)
	defer db.Close()

	lb := New(db.Heard(), db.Messages(), Config{}, log.New(io.Discard))
	lb.Start()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lb.StationHeard(opmode.HeardEvent{Source: "AB1CD", Destination: "N0CALL", Relay: "M17-XYZ", At: at})
	lb.MessageReceived(sms.Message{Sender: "AB1CD", Body: "hi", Checksum: 0x1234, ReceivedAt: at})
	lb.Stop()

	st, err := db.Heard().Get("AB1CD")
	require.NoError(t, err)
	assert.Equal(t, "M17-XYZ", st.Relay)

	msgs, err := db.Messages().Recent(10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, uint16(0x1234), msgs[0].Checksum)

	_, received, dropped, _ := lb.Stats()
	assert.Equal(t, uint32(1), received)
	assert.Equal(t, uint32(0), dropped)
}
