package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const placeholderSendGridKey = "your_sendgrid_api_key_here"

var ErrMailNotConfigured = errors.New("SendGrid API key not configured. Please add a valid SENDGRID_API_KEY to your environment variables.")

type Mailer interface {
	SendInvite(ctx context.Context, to, eventName, inviteLink string) error
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer returns a mailer that fails every send with ErrMailNotConfigured
// when the key is empty or still the placeholder.
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	m := &SendGridMailer{from: mail.NewEmail("", from)}
	if apiKey != "" && apiKey != placeholderSendGridKey {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

func (m *SendGridMailer) SendInvite(ctx context.Context, to, eventName, inviteLink string) error {
	if m.client == nil {
		return ErrMailNotConfigured
	}

	subject := fmt.Sprintf("You're invited to %s", eventName)
	link := html.EscapeString(inviteLink)
	htmlContent := fmt.Sprintf(`<p>Check out this event: <a href="%s">%s</a></p>`, link, link)
	plainContent := "Check out this event: " + inviteLink

	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), plainContent, htmlContent)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type MailService struct {
	Mailer  Mailer
	Capture Capturer
}

func NewMailService(mailer Mailer, capture Capturer) *MailService {
	return &MailService{Mailer: mailer, Capture: capture}
}

type sendInviteRequest struct {
	Email      string `json:"email"`
	EventName  string `json:"eventName"`
	InviteLink string `json:"inviteLink"`
}

// SendInviteEmail is POST /api/send-invite.
func (s *MailService) SendInviteEmail(c *fiber.Ctx) error {
	var req sendInviteRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.EventName == "" || req.InviteLink == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}

	if err := s.Mailer.SendInvite(c.UserContext(), req.Email, req.EventName, req.InviteLink); err != nil {
		return mailError(c, err)
	}

	log.Printf("[MAIL] ✅ invite for %q sent", req.EventName)
	s.Capture.Capture(distinctID(c), CaptureSendEmail, map[string]interface{}{
		"event_name": req.EventName,
	})
	return c.JSON(fiber.Map{"success": true})
}

func mailError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrMailNotConfigured) {
		log.Printf("[MAIL] ❌ %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("[MAIL] ❌ send failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Failed to send email",
		"details": err.Error(),
	})
}
