package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HeardRepository provides database operations for heard stations
type HeardRepository struct {
	db *gorm.DB
}

// NewHeardRepository creates a new repository instance
func NewHeardRepository(db *gorm.DB) *HeardRepository {
	return &HeardRepository{db: db}
}

// Record inserts a station or refreshes an existing one, counting the sighting
func (r *HeardRepository) Record(station *HeardStation) error {
	if station == nil {
		return fmt.Errorf("station cannot be nil")
	}

	station.SanitizeFields()
	if !station.IsValid() {
		return fmt.Errorf("station is not valid: callsign=%q", station.Callsign)
	}
	if station.FirstHeard.IsZero() {
		station.FirstHeard = station.LastHeard
	}
	station.Sightings = 1

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "callsign"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_destination": station.LastDestination,
			"relay":            station.Relay,
			"reflector":        station.Reflector,
			"can":              station.CAN,
			"packet":           station.Packet,
			"last_heard":       station.LastHeard,
			"sightings":        gorm.Expr("sightings + 1"),
		}),
	}).Create(station).Error
}

// Get finds a station by callsign
func (r *HeardRepository) Get(callsign string) (*HeardStation, error) {
	var station HeardStation
	err := r.db.Where("callsign = ?", callsign).First(&station).Error
	if err != nil {
		return nil, err
	}
	return &station, nil
}

// Recent returns the most recently heard stations
func (r *HeardRepository) Recent(limit int) ([]HeardStation, error) {
	var stations []HeardStation
	err := r.db.Order("last_heard DESC").
		Limit(limit).
		Find(&stations).Error
	return stations, err
}

// Since returns stations heard after the specified time
func (r *HeardRepository) Since(since time.Time, limit int) ([]HeardStation, error) {
	var stations []HeardStation
	err := r.db.Where("last_heard > ?", since).
		Order("last_heard DESC").
		Limit(limit).
		Find(&stations).Error
	return stations, err
}

// FindByCallsignPattern searches for callsigns starting with pattern
func (r *HeardRepository) FindByCallsignPattern(pattern string, limit int) ([]HeardStation, error) {
	var stations []HeardStation
	err := r.db.Where("callsign LIKE ?", pattern+"%").
		Order("callsign ASC").
		Limit(limit).
		Find(&stations).Error
	return stations, err
}

// Count returns the number of distinct stations heard
func (r *HeardRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&HeardStation{}).Count(&count).Error
	return count, err
}
