package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MessageRepository provides database operations for archived messages
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository instance
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Archive stores one message
func (r *MessageRepository) Archive(msg *ArchivedMessage) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if !msg.IsValid() {
		return fmt.Errorf("message is not valid: sender=%q", msg.Sender)
	}
	return r.db.Create(msg).Error
}

// Recent returns the newest messages first
func (r *MessageRepository) Recent(limit int) ([]ArchivedMessage, error) {
	var msgs []ArchivedMessage
	err := r.db.Order("received_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// BySender returns the messages received from one callsign, newest first
func (r *MessageRepository) BySender(callsign string, limit int) ([]ArchivedMessage, error) {
	var msgs []ArchivedMessage
	err := r.db.Where("sender = ?", callsign).
		Order("received_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// Count returns the total number of archived messages
func (r *MessageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&ArchivedMessage{}).Count(&count).Error
	return count, err
}

// DeleteOlderThan removes messages received before cutoff
func (r *MessageRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("received_at < ?", cutoff).Delete(&ArchivedMessage{})
	return res.RowsAffected, res.Error
}
