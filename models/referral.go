package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionType is one step of the referral funnel.
type ActionType string

const (
	ActionClick  ActionType = "click"
	ActionSignup ActionType = "signup"
	ActionRSVP   ActionType = "rsvp"
)

// Valid reports whether a is one of the known funnel actions.
func (a ActionType) Valid() bool {
	switch a {
	case ActionClick, ActionSignup, ActionRSVP:
		return true
	}
	return false
}

// Referral is one attribution row: a single observed funnel action credited to an invite.
// Rows are append-only. Pre- and post-login rows of the same visitor share SessionID.
type Referral struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	InviteID   string     `gorm:"type:uuid;not null;index:idx_referrals_invite_action,priority:1" json:"invite_id"`
	ActionType ActionType `gorm:"type:varchar(16);not null;index:idx_referrals_invite_action,priority:2" json:"action_type"`
	EventID    *string    `gorm:"type:uuid;index" json:"event_id,omitempty"`
	UserID     *string    `gorm:"index" json:"user_id,omitempty"` // nil until the visitor authenticates
	SessionID  *string    `gorm:"index" json:"session_id,omitempty"`
	Timestamp  time.Time  `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
