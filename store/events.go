package store

import (
	"context"
	"fmt"

	"viral-event-system/models"

	"gorm.io/gorm"
)

type eventRepo struct {
	db *gorm.DB
}

func (r *eventRepo) Create(ctx context.Context, e *models.Event) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create event: %w", translate(err))
	}
	return nil
}

func (r *eventRepo) Get(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if !validID(id) {
		return nil, ErrNotFound
	}
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *eventRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&events).Error
	return events, translate(err)
}

func (r *eventRepo) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, translate(err)
}

func (r *eventRepo) ListDiscoveredBy(ctx context.Context, userID string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Select("events.*").
		Joins("JOIN discovered_events ON discovered_events.event_id = events.id").
		Where("discovered_events.user_id = ?", userID).
		Order("discovered_events.updated_at DESC").
		Find(&events).Error
	return events, translate(err)
}

func (r *eventRepo) ListRSVPedBy(ctx context.Context, userID string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Select("events.*").
		Joins("JOIN rsvps ON rsvps.event_id = events.id").
		Where("rsvps.user_id = ?", userID).
		Order("events.date ASC").
		Find(&events).Error
	return events, translate(err)
}
