package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"viral-event-system/middleware"
	"viral-event-system/models"
	"viral-event-system/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// inviteCodeAttempts bounds regeneration after a code collision.
const inviteCodeAttempts = 5

var ErrCodeExhausted = errors.New("could not generate a unique invite code")

// NewInviteCode returns 8 lowercase hex characters taken from a random UUID.
func NewInviteCode() string {
	return uuid.NewString()[:8]
}

type InviteService struct {
	Store         *store.Store
	Mailer        Mailer
	Capture       Capturer
	PublicBaseURL string

	newCode func() string
}

func NewInviteService(st *store.Store, mailer Mailer, capture Capturer, publicBaseURL string) *InviteService {
	return &InviteService{
		Store:         st,
		Mailer:        mailer,
		Capture:       capture,
		PublicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		newCode:       NewInviteCode,
	}
}

// InviteView is an invite plus the link its owner shares.
type InviteView struct {
	models.Invite
	ShareLink string `json:"share_link"`
}

// ShareLink is <base>/events/<event id>?ref=<code>.
func (s *InviteService) ShareLink(inv *models.Invite) string {
	return fmt.Sprintf("%s/events/%s?ref=%s", s.PublicBaseURL, inv.EventID, url.QueryEscape(inv.Code))
}

func (s *InviteService) view(inv models.Invite) InviteView {
	return InviteView{Invite: inv, ShareLink: s.ShareLink(&inv)}
}

func (s *InviteService) views(invites []models.Invite) []InviteView {
	out := make([]InviteView, 0, len(invites))
	for _, inv := range invites {
		out = append(out, s.view(inv))
	}
	return out
}

// Generate creates an invite for referrerID on eventID, drawing a new code when the
// previous one is already taken.
func (s *InviteService) Generate(ctx context.Context, eventID, referrerID string) (*models.Invite, error) {
	for attempt := 1; attempt <= inviteCodeAttempts; attempt++ {
		inv := &models.Invite{EventID: eventID, ReferrerID: referrerID, Code: s.newCode()}
		err := s.Store.Invites.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		log.Printf("[INVITES] code collision on attempt %d, regenerating", attempt)
	}
	return nil, ErrCodeExhausted
}

func (s *InviteService) CreateInvite(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	event, err := s.Store.Events.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch event"})
	}

	inv, err := s.Generate(c.UserContext(), event.ID, userID)
	if err != nil {
		log.Printf("[INVITES] ❌ generate for %s on %s failed: %v", userID, event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create invite", "details": err.Error()})
	}

	log.Printf("[INVITES] ✅ %s generated %s for event %s", userID, inv.Code, event.ID)
	s.Capture.Capture(userID, CaptureGenerateInvite, map[string]interface{}{
		"event_id":    event.ID,
		"event_name":  event.Name,
		"invite_code": inv.Code,
	})
	return c.Status(fiber.StatusCreated).JSON(s.view(*inv))
}

func (s *InviteService) ListEventInvites(c *fiber.Ctx) error {
	invites, err := s.Store.Invites.ListByEvent(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		log.Printf("[INVITES] ❌ list for event %s failed: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch invites"})
	}
	return c.JSON(s.views(invites))
}

func (s *InviteService) ListMyInvites(c *fiber.Ctx) error {
	invites, err := s.Store.Invites.ListByReferrer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		log.Printf("[INVITES] ❌ list for %s failed: %v", middleware.UserID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch invites"})
	}
	return c.JSON(s.views(invites))
}

// ownedInvite loads :id and answers 404 unless the caller owns it.
func (s *InviteService) ownedInvite(c *fiber.Ctx) (*models.Invite, error) {
	inv, err := s.Store.Invites.Get(c.UserContext(), c.Params("id"))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[INVITES] ❌ load %s failed: %v", c.Params("id"), err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch invite"})
	}
	if inv == nil || inv.ReferrerID != middleware.UserID(c) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invite not found"})
	}
	return inv, nil
}

func (s *InviteService) ListInviteReferrals(c *fiber.Ctx) error {
	inv, err := s.ownedInvite(c)
	if inv == nil {
		return err
	}

	rows, err := s.Store.Referrals.ListByInvite(c.UserContext(), inv.ID)
	if err != nil {
		log.Printf("[INVITES] ❌ referrals for %s failed: %v", inv.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch referrals"})
	}
	if rows == nil {
		rows = []models.Referral{}
	}
	return c.JSON(rows)
}

type sendOwnedInviteRequest struct {
	Email string `json:"email" form:"email"`
}

// SendInvite emails the share link of an owned invite and marks it sent.
func (s *InviteService) SendInvite(c *fiber.Ctx) error {
	inv, err := s.ownedInvite(c)
	if inv == nil {
		return err
	}

	var req sendOwnedInviteRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}

	event, err := s.Store.Events.Get(c.UserContext(), inv.EventID)
	if err != nil {
		log.Printf("[INVITES] ❌ event %s of invite %s: %v", inv.EventID, inv.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch event"})
	}

	link := s.ShareLink(inv)
	if err := s.Mailer.SendInvite(c.UserContext(), strings.TrimSpace(req.Email), event.Name, link); err != nil {
		return mailError(c, err)
	}

	if err := s.Store.Invites.MarkEmailSent(c.UserContext(), inv.ID); err != nil {
		log.Printf("[INVITES] ⚠️ invite %s sent but not marked: %v", inv.ID, err)
	} else {
		inv.EmailSent = true
	}

	s.Capture.Capture(inv.ReferrerID, CaptureSendEmail, map[string]interface{}{
		"event_id":    event.ID,
		"event_name":  event.Name,
		"invite_code": inv.Code,
	})
	return c.JSON(fiber.Map{"success": true, "invite": s.view(*inv)})
}
