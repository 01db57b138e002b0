// models/invite.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite is a shareable referral code owned by one user for one event.
// Code is unique across all events so a bare ?ref=<code> resolves without the event.
type Invite struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID    string `gorm:"type:uuid;not null;index" json:"event_id"`
	ReferrerID string `gorm:"not null;index" json:"referrer_id"`
	Code       string `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`
	EmailSent  bool   `gorm:"default:false" json:"email_sent"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
