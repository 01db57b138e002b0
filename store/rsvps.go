package store

import (
	"context"
	"fmt"

	"viral-event-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type rsvpRepo struct {
	db *gorm.DB
}

func (r *rsvpRepo) Upsert(ctx context.Context, rsvp *models.RSVP) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(rsvp)
	if res.Error != nil {
		return false, fmt.Errorf("upsert rsvp (event=%s user=%s): %w", rsvp.EventID, rsvp.UserID, translate(res.Error))
	}
	return res.RowsAffected > 0, nil
}

func (r *rsvpRepo) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	if !validID(eventID) {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.RSVP{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

type discoveredRepo struct {
	db *gorm.DB
}

func (r *discoveredRepo) Upsert(ctx context.Context, d *models.DiscoveredEvent) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"discovered_via_invite_id", "updated_at"}),
	}).Create(d).Error
	if err != nil {
		return fmt.Errorf("upsert discovered event (user=%s event=%s): %w", d.UserID, d.EventID, translate(err))
	}
	return nil
}
