package testutil

import (
	"testing"
	"time"

	"viral-event-system/middleware"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken issues an HS256 access token shaped like the identity provider's.
func SignToken(t *testing.T, secret, userID, email string, ttl time.Duration) string {
	t.Helper()
	claims := middleware.Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
