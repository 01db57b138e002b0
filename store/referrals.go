package store

import (
	"context"
	"fmt"

	"viral-event-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type referralRepo struct {
	db *gorm.DB
}

func (r *referralRepo) Append(ctx context.Context, ref *models.Referral) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		return fmt.Errorf("append referral: %w", translate(err))
	}
	return nil
}

func (r *referralRepo) CountDistinctSessions(ctx context.Context, inviteID string, action models.ActionType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("invite_id = ? AND action_type = ? AND session_id IS NOT NULL", inviteID, action).
		Distinct("session_id").
		Count(&n).Error
	return n, translate(err)
}

func (r *referralRepo) Count(ctx context.Context, inviteID string, action models.ActionType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("invite_id = ? AND action_type = ?", inviteID, action).
		Count(&n).Error
	return n, translate(err)
}

func (r *referralRepo) ListByInvite(ctx context.Context, inviteID string) ([]models.Referral, error) {
	var rows []models.Referral
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Find(&rows).Error
	return rows, translate(err)
}
