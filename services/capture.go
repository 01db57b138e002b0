package services

import (
	"log"

	"viral-event-system/attribution"
	"viral-event-system/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/posthog/posthog-go"
)

// Product analytics events.
const (
	CaptureViewEvent      = "view_event"
	CaptureCreateEvent    = "create_event"
	CaptureGenerateInvite = "generate_invite"
	CaptureRSVPEvent      = "rsvp_event"
	CaptureSendEmail      = "send_email"
	CaptureViewAnalytics  = "view_analytics"
	CaptureSignedIn       = "signed_in"
)

// Capturer records product analytics. Capture never blocks on the network and
// never fails the caller.
type Capturer interface {
	Capture(distinctID, event string, props map[string]interface{})
	Close() error
}

type PostHogCapturer struct {
	client posthog.Client
}

func NewPostHogCapturer(apiKey, host string) (*PostHogCapturer, error) {
	cfg := posthog.Config{}
	if host != "" {
		cfg.Endpoint = host
	}
	client, err := posthog.NewWithConfig(apiKey, cfg)
	if err != nil {
		return nil, err
	}
	return &PostHogCapturer{client: client}, nil
}

func (p *PostHogCapturer) Capture(distinctID, event string, props map[string]interface{}) {
	properties := posthog.NewProperties()
	for k, v := range props {
		properties.Set(k, v)
	}
	err := p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		log.Printf("[CAPTURE] ⚠️ %s dropped: %v", event, err)
	}
}

// Close flushes queued events.
func (p *PostHogCapturer) Close() error {
	return p.client.Close()
}

type NopCapturer struct{}

func (NopCapturer) Capture(string, string, map[string]interface{}) {}
func (NopCapturer) Close() error                                  { return nil }

// distinctID identifies the caller for analytics: the user when signed in, else the
// visitor's session if one exists.
func distinctID(c *fiber.Ctx) string {
	if id := middleware.UserID(c); id != "" {
		return id
	}
	if sid, ok := middleware.VisitorKV(c).Get(attribution.KeySessionID); ok {
		return sid
	}
	return "anonymous"
}
