package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "m17link.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHealth(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Health())
}

func TestArchiveMessages(t *testing.T) {
	db := openTestDB(t)
	repo := db.Messages()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, sender := range []string{"AB1CD", "N0CALL", "AB1CD"} {
		err := repo.Archive(&ArchivedMessage{
			Sender:     sender,
			Body:       "message",
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	recent, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "AB1CD", recent[0].Sender)
	assert.True(t, recent[0].ReceivedAt.After(recent[1].ReceivedAt))

	mine, err := repo.BySender("AB1CD", 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	deleted, err := repo.DeleteOlderThan(base.Add(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestArchiveRejectsInvalid(t *testing.T) {
	repo := openTestDB(t).Messages()
	assert.Error(t, repo.Archive(nil))
	assert.Error(t, repo.Archive(&ArchivedMessage{Body: "no sender"}))
}

func TestRecordHeard(t *testing.T) {
	db := openTestDB(t)
	repo := db.Heard()

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(&HeardStation{Callsign: "ab1cd", LastDestination: "ALL", LastHeard: first}))
	require.NoError(t, repo.Record(&HeardStation{
		Callsign:        "AB1CD",
		LastDestination: "N0CALL",
		Relay:           "M17-XYZ",
		LastHeard:       first.Add(time.Hour),
	}))
	require.NoError(t, repo.Record(&HeardStation{Callsign: "W1XYZ", LastDestination: "ALL", LastHeard: first.Add(time.Minute)}))

	station, err := repo.Get("AB1CD")
	require.NoError(t, err)
	assert.Equal(t, 2, station.Sightings)
	assert.Equal(t, "N0CALL", station.LastDestination)
	assert.Equal(t, "M17-XYZ", station.Relay)
	assert.True(t, station.FirstHeard.Equal(first))
	assert.True(t, station.LastHeard.Equal(first.Add(time.Hour)))

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "AB1CD", recent[0].Callsign)

	found, err := repo.FindByCallsignPattern("W1", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "W1XYZ", found[0].Callsign)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestHeardStationString(t *testing.T) {
	tests := []struct {
		name    string
		station HeardStation
		want    string
	}{
		{"direct", HeardStation{Callsign: "AB1CD", LastDestination: "ALL"}, "AB1CD > ALL"},
		{"relayed", HeardStation{Callsign: "AB1CD", LastDestination: "ALL", Relay: "M17-XYZ", Reflector: "M17-XYZ C"}, "AB1CD > ALL via M17-XYZ (M17-XYZ C)"},
		{"with CAN", HeardStation{Callsign: "AB1CD", LastDestination: "N0CALL", CAN: 4}, "AB1CD > N0CALL [CAN 4]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.station.String())
		})
	}
}
