package store

import (
	"context"
	"fmt"

	"viral-event-system/models"

	"gorm.io/gorm"
)

type snapshotRepo struct {
	db *gorm.DB
}

func (r *snapshotRepo) Save(ctx context.Context, s *models.FunnelSnapshot) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("save funnel snapshot for %s: %w", s.OwnerID, translate(err))
	}
	return nil
}

func (r *snapshotRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.FunnelSnapshot, error) {
	var snaps []models.FunnelSnapshot
	q := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("taken_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&snaps).Error
	return snaps, translate(err)
}
