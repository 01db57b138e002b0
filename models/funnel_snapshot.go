package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FunnelSnapshot is a point-in-time copy of an owner's funnel summary, written by the snapshot job.
type FunnelSnapshot struct {
	ID      string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID string    `gorm:"not null;index:idx_snapshots_owner_taken,priority:1" json:"owner_id"`
	TakenAt time.Time `gorm:"not null;index:idx_snapshots_owner_taken,priority:2" json:"taken_at"`

	TotalInvitesSent         int64   `json:"total_invites_sent"`
	TotalClicks              int64   `json:"total_clicks"`
	TotalSignups             int64   `json:"total_signups"`
	TotalRsvps               int64   `json:"total_rsvps"`
	OverallClickToSignupRate float64 `json:"overall_click_to_signup_rate"`
	OverallSignupToRsvpRate  float64 `json:"overall_signup_to_rsvp_rate"`
}

func (s *FunnelSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
