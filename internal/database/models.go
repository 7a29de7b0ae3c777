package database

import (
	"fmt"
	"strings"
	"time"
)

// ArchivedMessage is a received short message kept after it leaves the
// in-memory store
type ArchivedMessage struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Sender     string    `gorm:"index;size:9;not null" json:"sender"`
	Body       string    `gorm:"size:822" json:"body"`
	Checksum   uint16    `json:"checksum"`
	ReceivedAt time.Time `gorm:"index" json:"received_at"`
}

// TableName specifies the table name for GORM
func (ArchivedMessage) TableName() string {
	return "messages"
}

// IsValid checks if the message has the required fields
func (m ArchivedMessage) IsValid() bool {
	return m.Sender != "" && !m.ReceivedAt.IsZero()
}

// String returns a one line summary
func (m ArchivedMessage) String() string {
	return fmt.Sprintf("%s: %s", m.Sender, m.Body)
}

// HeardStation is the latest sighting of a station on the air
type HeardStation struct {
	Callsign        string    `gorm:"primarykey;size:9" json:"callsign"`
	LastDestination string    `gorm:"size:9" json:"last_destination"`
	Relay           string    `gorm:"size:9" json:"relay"`
	Reflector       string    `gorm:"size:9" json:"reflector"`
	CAN             uint8     `json:"can"`
	Packet          bool      `json:"packet"`
	Sightings       int       `json:"sightings"`
	FirstHeard      time.Time `json:"first_heard"`
	LastHeard       time.Time `gorm:"index" json:"last_heard"`
}

// TableName specifies the table name for GORM
func (HeardStation) TableName() string {
	return "heard_stations"
}

// IsValid checks if the record has the required fields
func (h HeardStation) IsValid() bool {
	return h.Callsign != "" && !h.LastHeard.IsZero()
}

// SanitizeFields cleans up the callsign fields
func (h *HeardStation) SanitizeFields() {
	h.Callsign = strings.ToUpper(strings.TrimSpace(h.Callsign))
	h.LastDestination = strings.ToUpper(strings.TrimSpace(h.LastDestination))
	h.Relay = strings.ToUpper(strings.TrimSpace(h.Relay))
	h.Reflector = strings.ToUpper(strings.TrimSpace(h.Reflector))
}

// Via returns the relay path, empty when heard directly
func (h HeardStation) Via() string {
	switch {
	case h.Relay != "" && h.Reflector != "":
		return h.Relay + " (" + h.Reflector + ")"
	case h.Relay != "":
		return h.Relay
	}
	return h.Reflector
}

// String returns a formatted string representation
func (h HeardStation) String() string {
	result := fmt.Sprintf("%s > %s", h.Callsign, h.LastDestination)
	if via := h.Via(); via != "" {
		result += fmt.Sprintf(" via %s", via)
	}
	if h.CAN != 0 {
		result += fmt.Sprintf(" [CAN %d]", h.CAN)
	}
	return result
}
