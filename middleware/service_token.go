// middleware/service_token.go
package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ServiceToken guards internal routes with a shared bearer token.
func ServiceToken(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		log.Fatal("❌ ServiceToken middleware needs a non-empty token")
	}

	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			log.Printf("🚫 [SERVICE_AUTH] Missing bearer token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service token missing",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Printf("❌ [SERVICE_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}

		return c.Next()
	}
}
