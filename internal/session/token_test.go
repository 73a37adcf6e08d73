package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issue builds a token the way the platform does. The signing secret is
// irrelevant to the gateway, which only decodes the payload.
func issue(t *testing.T, email string, admin bool, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      "user-1",
		"email":    email,
		"is_admin": admin,
	}
	if !expiresAt.IsZero() {
		claims["exp"] = expiresAt.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("platform-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestNewTokenDecodesClaims(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := issue(t, "student@example.com", true, expiresAt)

	token, err := NewToken(raw, "refresh-1", "")
	if err != nil {
		t.Fatalf("NewToken() unexpected error: %v", err)
	}
	if token.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %s", token.Subject)
	}
	if token.Email != "student@example.com" {
		t.Fatalf("unexpected email %s", token.Email)
	}
	if !token.Admin {
		t.Fatal("expected admin claim to be set")
	}
	if token.TokenType != "bearer" {
		t.Fatalf("expected default token type bearer, got %s", token.TokenType)
	}
	if !token.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("expected expiry %v, got %v", expiresAt, token.ExpiresAt)
	}
	if token.Expired(time.Now()) {
		t.Fatal("fresh token reported expired")
	}
}

func TestTokenExpiry(t *testing.T) {
	raw := issue(t, "student@example.com", false, time.Now().Add(-time.Hour))
	token, err := NewToken(raw, "", "bearer")
	if err != nil {
		t.Fatalf("NewToken() unexpected error: %v", err)
	}
	if !token.Expired(time.Now()) {
		t.Fatal("expected hour-old token to be expired")
	}
}

func TestTokenExpiryLeeway(t *testing.T) {
	raw := issue(t, "student@example.com", false, time.Now().Add(-5*time.Second))
	token, err := NewToken(raw, "", "bearer")
	if err != nil {
		t.Fatalf("NewToken() unexpected error: %v", err)
	}
	if token.Expired(time.Now()) {
		t.Fatal("token just past expiry should still be inside the leeway")
	}
}

func TestTokenWithoutExpiryIsExpired(t *testing.T) {
	raw := issue(t, "student@example.com", false, time.Time{})
	token, err := NewToken(raw, "", "bearer")
	if err != nil {
		t.Fatalf("NewToken() unexpected error: %v", err)
	}
	if !token.Expired(time.Now()) {
		t.Fatal("token without expiry claim must be treated as expired")
	}
}

func TestNewTokenRejectsGarbage(t *testing.T) {
	if _, err := NewToken("not-a-jwt", "", ""); err == nil {
		t.Fatal("expected error for undecodable token")
	}
}
