package api_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/mentorhub/api"
	"github.com/garnizeh/mentorhub/internal/schema"
)

func signToken(t *testing.T, secret string, userID, version int64, ttl time.Duration) string {
	t.Helper()
	claims := api.Claims{
		UserID:       userID,
		TokenVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func loadSchemas(t *testing.T) *schema.Loader {
	t.Helper()
	l, err := schema.NewLoader()
	if err != nil {
		t.Fatalf("load schemas: %v", err)
	}
	return l
}
