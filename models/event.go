// models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"index" json:"slug"`
	Date        time.Time `gorm:"not null" json:"date"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    *string   `json:"image_url,omitempty"`
	UserID      string    `gorm:"index;not null" json:"user_id"` // owner

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// DiscoveredEvent records that a signed-in user reached an event through someone's invite.
// At most one row per (user, event); the latest invite wins.
type DiscoveredEvent struct {
	ID                    string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID                string `gorm:"not null;uniqueIndex:idx_discovered_user_event,priority:1" json:"user_id"`
	EventID               string `gorm:"type:uuid;not null;uniqueIndex:idx_discovered_user_event,priority:2" json:"event_id"`
	DiscoveredViaInviteID string `gorm:"type:uuid" json:"discovered_via_invite_id"`

	Timestamps
}

func (d *DiscoveredEvent) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
