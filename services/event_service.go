package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"mime/multipart"
	"strings"
	"time"

	"viral-event-system/attribution"
	"viral-event-system/middleware"
	"viral-event-system/models"
	"viral-event-system/store"
	"viral-event-system/utils"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/gosimple/slug"
)

const recentEventsLimit = 20

// ImageUploader stores a cover image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

type EventService struct {
	Store    *store.Store
	Recorder *attribution.Recorder
	Images   ImageUploader // nil when uploads are not configured
	Capture  Capturer

	now func() time.Time
}

func NewEventService(st *store.Store, rec *attribution.Recorder, images ImageUploader, capture Capturer) *EventService {
	return &EventService{Store: st, Recorder: rec, Images: images, Capture: capture, now: time.Now}
}

type CreateEventRequest struct {
	Name        string `json:"name" form:"name"`
	Date        string `json:"date" form:"date"`
	Description string `json:"description" form:"description"`
	Location    string `json:"location" form:"location"`
	ImageURL    string `json:"image_url" form:"image_url"`
}

// detach copies form-decoded fields out of the request buffer; they outlive the
// handler in queued analytics events.
func (r *CreateEventRequest) detach() {
	r.Name = fiberutils.CopyString(r.Name)
	r.Date = fiberutils.CopyString(r.Date)
	r.Description = fiberutils.CopyString(r.Description)
	r.Location = fiberutils.CopyString(r.Location)
	r.ImageURL = fiberutils.CopyString(r.ImageURL)
}

// eventDateLayouts are tried in order; the last one is an HTML datetime-local value.
var eventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// defaultImageURL derives a picsum URL from the owner, the name and the creation time.
func defaultImageURL(userID, name string, at time.Time) string {
	seed := 0
	for _, r := range fmt.Sprintf("%s-%s-%d", userID, name, at.UnixMilli()) {
		seed += int(r)
	}
	return fmt.Sprintf("https://picsum.photos/400/400?random=%d", seed%10000)
}

// CreateEvent accepts JSON, urlencoded or multipart bodies. A multipart "image" file
// wins over image_url; with neither a generated picsum URL is stored.
func (s *EventService) CreateEvent(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body", "details": err.Error()})
	}
	req.detach()
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Date) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and date are required"})
	}
	date, err := parseEventDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date", "details": err.Error()})
	}

	imageURL := strings.TrimSpace(req.ImageURL)
	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader.Size > 0 {
		if s.Images == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image uploads are not configured"})
		}
		key, err := utils.ImageObjectKey("events", fileHeader)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid image", "details": err.Error()})
		}
		imageURL, err = s.Images.Upload(c.UserContext(), fileHeader, key)
		if err != nil {
			log.Printf("[EVENTS] ❌ image upload failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload image"})
		}
	}
	if imageURL == "" {
		imageURL = defaultImageURL(userID, req.Name, s.now())
	}

	event := &models.Event{
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Date:        date,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    &imageURL,
		UserID:      userID,
	}
	if err := s.Store.Events.Create(c.UserContext(), event); err != nil {
		log.Printf("[EVENTS] ❌ create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create event", "details": err.Error()})
	}

	log.Printf("[EVENTS] ✅ %s created event %s (%s)", userID, event.ID, event.Slug)
	s.Capture.Capture(userID, CaptureCreateEvent, map[string]interface{}{
		"event_name":        event.Name,
		"event_date":        req.Date,
		"event_description": event.Description,
		"event_location":    event.Location,
	})
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (s *EventService) ListEvents(c *fiber.Ctx) error {
	events, err := s.Store.Events.ListRecent(c.UserContext(), recentEventsLimit)
	return s.respondEvents(c, events, err)
}

func (s *EventService) ListMyEvents(c *fiber.Ctx) error {
	events, err := s.Store.Events.ListByOwner(c.UserContext(), middleware.UserID(c))
	return s.respondEvents(c, events, err)
}

func (s *EventService) ListDiscoveredEvents(c *fiber.Ctx) error {
	events, err := s.Store.Events.ListDiscoveredBy(c.UserContext(), middleware.UserID(c))
	return s.respondEvents(c, events, err)
}

func (s *EventService) ListRSVPedEvents(c *fiber.Ctx) error {
	events, err := s.Store.Events.ListRSVPedBy(c.UserContext(), middleware.UserID(c))
	return s.respondEvents(c, events, err)
}

func (s *EventService) respondEvents(c *fiber.Ctx, events []models.Event, err error) error {
	if err != nil {
		log.Printf("[EVENTS] ❌ list failed on %s: %v", c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch events"})
	}
	if events == nil {
		events = []models.Event{}
	}
	return c.JSON(events)
}

// loadEvent writes the 404/500 response itself and returns nil when the event is missing.
func (s *EventService) loadEvent(c *fiber.Ctx) (*models.Event, error) {
	event, err := s.Store.Events.Get(c.UserContext(), c.Params("id"))
	if err == nil {
		return event, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
	}
	log.Printf("[EVENTS] ❌ load %s failed: %v", c.Params("id"), err)
	return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch event"})
}

// GetEvent returns one event. Arriving with a non-blank ?ref= records a click for the code and,
// for signed-in visitors, remembers the event as discovered through that invite.
func (s *EventService) GetEvent(c *fiber.Ctx) error {
	event, err := s.loadEvent(c)
	if event == nil {
		return err
	}

	userID := middleware.UserID(c)
	if middleware.ArrivedWithRef(c) {
		kv := middleware.VisitorKV(c)
		row := s.Recorder.Track(c.UserContext(), kv, models.ActionClick, attribution.ContextIDs{
			UserID:  userID,
			EventID: event.ID,
		})
		if row != nil && userID != "" {
			discovered := &models.DiscoveredEvent{
				UserID:                userID,
				EventID:               event.ID,
				DiscoveredViaInviteID: row.InviteID,
			}
			if err := s.Store.Discovered.Upsert(c.UserContext(), discovered); err != nil {
				log.Printf("[EVENTS] ⚠️ discovered event for %s not saved: %v", userID, err)
			}
		}
	}

	s.Capture.Capture(distinctID(c), CaptureViewEvent, map[string]interface{}{
		"event_id":   event.ID,
		"event_name": event.Name,
	})
	return c.JSON(event)
}

// RSVP upserts the caller's RSVP. A store failure is reported so the caller can retry.
// Attribution only follows a newly inserted RSVP.
func (s *EventService) RSVP(c *fiber.Ctx) error {
	event, err := s.loadEvent(c)
	if event == nil {
		return err
	}

	userID := middleware.UserID(c)
	created, err := s.Store.RSVPs.Upsert(c.UserContext(), &models.RSVP{EventID: event.ID, UserID: userID})
	if err != nil {
		log.Printf("[RSVP] ❌ %s on %s failed: %v", userID, event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to RSVP", "details": err.Error()})
	}
	if !created {
		return c.JSON(fiber.Map{"rsvped": true})
	}

	s.Recorder.Track(c.UserContext(), middleware.VisitorKV(c), models.ActionRSVP, attribution.ContextIDs{
		UserID:  userID,
		EventID: event.ID,
	})
	s.Capture.Capture(userID, CaptureRSVPEvent, map[string]interface{}{
		"event_id":   event.ID,
		"event_name": event.Name,
	})
	log.Printf("[RSVP] ✅ %s is going to %s", userID, event.ID)
	return c.JSON(fiber.Map{"rsvped": true})
}

func (s *EventService) RSVPStatus(c *fiber.Ctx) error {
	ok, err := s.Store.RSVPs.Exists(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		log.Printf("[RSVP] ❌ status lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to check RSVP"})
	}
	return c.JSON(fiber.Map{"rsvped": ok})
}

type ImageSuggestion struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Source string `json:"source"`
}

// ImageSuggestions returns ?count= (1..10, default 3) random cover images.
func (s *EventService) ImageSuggestions(c *fiber.Ctx) error {
	count := c.QueryInt("count", 3)
	if count < 1 || count > 10 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "count must be between 1 and 10"})
	}

	suggestions := make([]ImageSuggestion, 0, count)
	for i := 0; i < count; i++ {
		suggestions = append(suggestions, ImageSuggestion{
			URL:    fmt.Sprintf("https://picsum.photos/400/200?random=%d", rand.Intn(1000)),
			Alt:    fmt.Sprintf("Event image suggestion %d", i+1),
			Source: "Lorem Picsum",
		})
	}
	return c.JSON(suggestions)
}
