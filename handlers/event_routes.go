// handlers/event_routes.go
package handlers

import (
	"viral-event-system/middleware"
	"viral-event-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, eventService *services.EventService, inviteService *services.InviteService, verifier *middleware.TokenVerifier) {
	requireAuth := middleware.RequireAuth(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)

	// 🔓 Public
	app.Get("/events", eventService.ListEvents)
	app.Get("/images/suggestions", eventService.ImageSuggestions)

	// 🔐 Per-user lists; registered before /events/:id so they are not taken as ids
	app.Get("/events/mine", requireAuth, eventService.ListMyEvents)
	app.Get("/events/discovered", requireAuth, eventService.ListDiscoveredEvents)
	app.Get("/events/rsvped", requireAuth, eventService.ListRSVPedEvents)

	// Event page: anonymous visitors still get click attribution
	app.Get("/events/:id", optionalAuth, eventService.GetEvent)

	app.Post("/events", requireAuth, eventService.CreateEvent)
	app.Post("/events/:id/rsvp", requireAuth, eventService.RSVP)
	app.Get("/events/:id/rsvp", requireAuth, eventService.RSVPStatus)

	app.Post("/events/:id/invites", requireAuth, inviteService.CreateInvite)
	app.Get("/events/:id/invites", requireAuth, inviteService.ListEventInvites)
}
