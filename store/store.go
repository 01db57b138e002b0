package store

import (
	"context"
	"errors"
	"strings"

	"viral-event-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	Get(ctx context.Context, id string) (*models.Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Event, error)
	ListRecent(ctx context.Context, limit int) ([]models.Event, error)
	ListDiscoveredBy(ctx context.Context, userID string) ([]models.Event, error)
	ListRSVPedBy(ctx context.Context, userID string) ([]models.Event, error)
}

type InviteRepository interface {
	Create(ctx context.Context, inv *models.Invite) error
	Get(ctx context.Context, id string) (*models.Invite, error)
	FindByCode(ctx context.Context, code string) (*models.Invite, error)
	// ListByReferrer returns invites oldest first.
	ListByReferrer(ctx context.Context, referrerID string) ([]models.Invite, error)
	ListByEvent(ctx context.Context, eventID, referrerID string) ([]models.Invite, error)
	ListReferrers(ctx context.Context) ([]string, error)
	MarkEmailSent(ctx context.Context, id string) error
}

type ReferralRepository interface {
	Append(ctx context.Context, r *models.Referral) error
	// CountDistinctSessions counts distinct non-null session ids for the invite and action.
	CountDistinctSessions(ctx context.Context, inviteID string, action models.ActionType) (int64, error)
	Count(ctx context.Context, inviteID string, action models.ActionType) (int64, error)
	ListByInvite(ctx context.Context, inviteID string) ([]models.Referral, error)
}

type RSVPRepository interface {
	// Upsert inserts the RSVP unless one already exists for the same (event, user)
	// and reports whether a row was inserted.
	Upsert(ctx context.Context, r *models.RSVP) (bool, error)
	Exists(ctx context.Context, eventID, userID string) (bool, error)
}

type DiscoveredEventRepository interface {
	Upsert(ctx context.Context, d *models.DiscoveredEvent) error
}

type SnapshotRepository interface {
	Save(ctx context.Context, s *models.FunnelSnapshot) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.FunnelSnapshot, error)
}

// Store groups the repositories backed by one database handle.
type Store struct {
	Events     EventRepository
	Invites    InviteRepository
	Referrals  ReferralRepository
	RSVPs      RSVPRepository
	Discovered DiscoveredEventRepository
	Snapshots  SnapshotRepository
}

func New(db *gorm.DB) *Store {
	return &Store{
		Events:     &eventRepo{db: db},
		Invites:    &inviteRepo{db: db},
		Referrals:  &referralRepo{db: db},
		RSVPs:      &rsvpRepo{db: db},
		Discovered: &discoveredRepo{db: db},
		Snapshots:  &snapshotRepo{db: db},
	}
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Event{},
		&models.Invite{},
		&models.Referral{},
		&models.RSVP{},
		&models.DiscoveredEvent{},
		&models.FunnelSnapshot{},
	)
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	// drivers opened without TranslateError
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return ErrDuplicate
	}
	return err
}
