package store

import (
	"context"
	"fmt"

	"viral-event-system/models"

	"gorm.io/gorm"
)

type inviteRepo struct {
	db *gorm.DB
}

func (r *inviteRepo) Create(ctx context.Context, inv *models.Invite) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("create invite: %w", translate(err))
	}
	return nil
}

func (r *inviteRepo) Get(ctx context.Context, id string) (*models.Invite, error) {
	var inv models.Invite
	if !validID(id) {
		return nil, ErrNotFound
	}
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *inviteRepo) FindByCode(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	if err := r.db.WithContext(ctx).Where("code = ?", code).Take(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *inviteRepo) ListByReferrer(ctx context.Context, referrerID string) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC").Order("id ASC").
		Find(&invites).Error
	return invites, translate(err)
}

func (r *inviteRepo) ListByEvent(ctx context.Context, eventID, referrerID string) ([]models.Invite, error) {
	var invites []models.Invite
	if !validID(eventID) {
		return invites, nil
	}
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND referrer_id = ?", eventID, referrerID).
		Order("created_at ASC").Order("id ASC").
		Find(&invites).Error
	return invites, translate(err)
}

func (r *inviteRepo) ListReferrers(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Distinct().
		Order("referrer_id").
		Pluck("referrer_id", &ids).Error
	return ids, translate(err)
}

func (r *inviteRepo) MarkEmailSent(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ?", id).
		Update("email_sent", true)
	if res.Error != nil {
		return fmt.Errorf("mark invite %s sent: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
