package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RSVP marks a user as attending an event. (event_id, user_id) is unique.
type RSVP struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID string `gorm:"type:uuid;not null;uniqueIndex:idx_rsvps_event_user,priority:1" json:"event_id"`
	UserID  string `gorm:"not null;uniqueIndex:idx_rsvps_event_user,priority:2" json:"user_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RSVP) TableName() string { return "rsvps" }

func (r *RSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
