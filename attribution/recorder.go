package attribution

import (
	"context"
	"errors"
	"log"
	"strings"

	"viral-event-system/models"
	"viral-event-system/store"

	"golang.org/x/text/cases"
)

// ContextIDs carries the identities known at the moment of an action.
// Empty fields are stored as NULL.
type ContextIDs struct {
	UserID  string
	EventID string
}

// Recorder appends attribution rows for the visitor's active referral code.
type Recorder struct {
	invites   store.InviteRepository
	referrals store.ReferralRepository
}

func NewRecorder(invites store.InviteRepository, referrals store.ReferralRepository) *Recorder {
	return &Recorder{invites: invites, referrals: referrals}
}

// Track records one action. It never fails the caller: without a stored code it does
// nothing, and unknown codes or store errors are only logged. The appended row is
// returned, or nil when nothing was written. Repeated calls append repeated rows.
func (r *Recorder) Track(ctx context.Context, kv KV, action models.ActionType, ids ContextIDs) *models.Referral {
	code, ok := ActiveCode(kv)
	if !ok {
		return nil
	}
	if !action.Valid() {
		log.Printf("[ATTRIBUTION] ⚠️ unknown action %q for code %q ignored", action, code)
		return nil
	}

	inv, err := r.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[ATTRIBUTION] code %q matches no invite, %s dropped", code, action)
		} else {
			log.Printf("[ATTRIBUTION] ❌ invite lookup for %q failed: %v", code, err)
		}
		return nil
	}

	sessionID := SessionID(kv)
	row := &models.Referral{
		InviteID:   inv.ID,
		ActionType: action,
		SessionID:  &sessionID,
		UserID:     optional(ids.UserID),
		EventID:    optional(ids.EventID),
	}
	if err := r.referrals.Append(ctx, row); err != nil {
		log.Printf("[ATTRIBUTION] ❌ %s for invite %s not recorded: %v", action, inv.ID, err)
		return nil
	}

	log.Printf("[ATTRIBUTION] ✅ %s credited to invite %s (session=%s)", action, inv.ID, sessionID)
	return row
}

// Lookup finds the invite for a code. Codes are matched case-insensitively.
func (r *Recorder) Lookup(ctx context.Context, code string) (*models.Invite, error) {
	return r.invites.FindByCode(ctx, NormalizeCode(code))
}

// NormalizeCode folds case and trims space so codes typed by hand still match.
func NormalizeCode(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
