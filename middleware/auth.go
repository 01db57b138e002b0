package middleware

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
)

// Claims are the parts of a provider access token this service reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens issued by the identity provider.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("verify token: missing sub claim")
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(v *TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}

		claims, err := v.Verify(token)
		if err != nil {
			log.Printf("🚫 [AUTH] rejected token on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Invalid token",
				"details": err.Error(),
			})
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalUserEmail, claims.Email)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets anonymous
// requests through. An invalid token is treated as anonymous.
func OptionalAuth(v *TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if claims, err := v.Verify(token); err == nil {
				c.Locals(LocalUserID, claims.Subject)
				c.Locals(LocalUserEmail, claims.Email)
			} else {
				log.Printf("[AUTH] ignoring invalid token on %s: %v", c.Path(), err)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalUserEmail).(string)
	return email
}

// AccessToken returns the raw bearer token of the request, if any.
func AccessToken(c *fiber.Ctx) string {
	token, _ := bearerToken(c)
	return token
}
