// handlers/analytics_routes.go
package handlers

import (
	"viral-event-system/middleware"
	"viral-event-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAnalyticsRoutes registers the dashboard routes. The internal snapshot trigger
// is only mounted when serviceToken is set.
func SetupAnalyticsRoutes(app *fiber.App, analyticsService *services.AnalyticsService, verifier *middleware.TokenVerifier, serviceToken string) {
	requireAuth := middleware.RequireAuth(verifier)

	app.Get("/analytics", requireAuth, analyticsService.GetAnalytics)
	app.Get("/analytics/snapshots", requireAuth, analyticsService.ListSnapshots)

	if serviceToken != "" {
		app.Post("/internal/snapshots/run", middleware.ServiceToken(serviceToken), analyticsService.RunSnapshots)
	}
}
