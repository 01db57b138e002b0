package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"viral-event-system/attribution"
	"viral-event-system/middleware"
	"viral-event-system/models"

	"github.com/gofiber/fiber/v2"
)

// SignedInSubscriber runs after a sign-up or sign-in produced a session.
type SignedInSubscriber func(ctx context.Context, kv attribution.KV, user IdentityUser)

type AuthService struct {
	Identity    IdentityProvider
	Capture     Capturer
	subscribers []SignedInSubscriber
}

func NewAuthService(identity IdentityProvider, capture Capturer) *AuthService {
	return &AuthService{Identity: identity, Capture: capture}
}

// OnSignedIn registers a subscriber. Subscribers run in registration order.
func (s *AuthService) OnSignedIn(sub SignedInSubscriber) {
	s.subscribers = append(s.subscribers, sub)
}

// AttributeSignup credits a signup to the visitor's active referral code.
func AttributeSignup(rec *attribution.Recorder) SignedInSubscriber {
	return func(ctx context.Context, kv attribution.KV, user IdentityUser) {
		rec.Track(ctx, kv, models.ActionSignup, attribution.ContextIDs{UserID: user.ID})
	}
}

type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func parseCredentials(c *fiber.Ctx) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	return req, req.Email != "" && req.Password != ""
}

// SignUp creates an account. When the provider answers with a session the visitor
// is signed in right away.
func (s *AuthService) SignUp(c *fiber.Ctx) error {
	req, ok := parseCredentials(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	session, err := s.Identity.SignUp(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return identityError(c, "sign up failed", err)
	}

	confirmationRequired := session.AccessToken == ""
	if !confirmationRequired {
		s.signedIn(c, session.User)
	}

	log.Printf("[AUTH] ✅ sign up for %s (confirmation_required=%t)", session.User.ID, confirmationRequired)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":                  session.User,
		"session":               sessionOrNil(session),
		"confirmation_required": confirmationRequired,
	})
}

func (s *AuthService) SignIn(c *fiber.Ctx) error {
	req, ok := parseCredentials(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	session, err := s.Identity.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return identityError(c, "sign in failed", err)
	}

	s.signedIn(c, session.User)
	return c.JSON(fiber.Map{"user": session.User, "session": session})
}

func (s *AuthService) SignOut(c *fiber.Ctx) error {
	if err := s.Identity.SignOut(c.UserContext(), middleware.AccessToken(c)); err != nil {
		return identityError(c, "sign out failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *AuthService) Me(c *fiber.Ctx) error {
	return c.JSON(IdentityUser{ID: middleware.UserID(c), Email: middleware.UserEmail(c)})
}

func (s *AuthService) signedIn(c *fiber.Ctx, user IdentityUser) {
	kv := middleware.VisitorKV(c)
	for _, sub := range s.subscribers {
		sub(c.UserContext(), kv, user)
	}
	s.Capture.Capture(user.ID, CaptureSignedIn, map[string]interface{}{
		"email": user.Email,
	})
}

func sessionOrNil(session *Session) *Session {
	if session.AccessToken == "" {
		return nil
	}
	return session
}

func identityError(c *fiber.Ctx, msg string, err error) error {
	var idErr *IdentityError
	if errors.As(err, &idErr) && idErr.Status >= 400 && idErr.Status < 500 {
		status := idErr.Status
		if status == fiber.StatusNotFound {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": msg, "details": idErr.Message})
	}
	log.Printf("[AUTH] ❌ %s: %v", msg, err)
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": msg, "details": err.Error()})
}
