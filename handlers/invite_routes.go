package handlers

import (
	"viral-event-system/middleware"
	"viral-event-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupInviteRoutes(app *fiber.App, inviteService *services.InviteService, mailService *services.MailService, verifier *middleware.TokenVerifier) {
	requireAuth := middleware.RequireAuth(verifier)

	app.Get("/invites", requireAuth, inviteService.ListMyInvites)
	app.Get("/invites/:id/referrals", requireAuth, inviteService.ListInviteReferrals)
	app.Post("/invites/:id/send", requireAuth, inviteService.SendInvite)

	// Raw email contract used by the share dialog
	app.Post("/api/send-invite", requireAuth, mailService.SendInviteEmail)
}
