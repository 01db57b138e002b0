package handlers

import (
	"viral-event-system/middleware"
	"viral-event-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService, verifier *middleware.TokenVerifier) {
	requireAuth := middleware.RequireAuth(verifier)

	app.Post("/auth/signup", authService.SignUp)
	app.Post("/auth/signin", authService.SignIn)
	app.Post("/auth/signout", requireAuth, authService.SignOut)
	app.Get("/auth/me", requireAuth, authService.Me)
}
