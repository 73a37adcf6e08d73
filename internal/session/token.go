package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway absorbs clock skew between the gateway and the token issuer.
const expiryLeeway = 30 * time.Second

// Claims is the subset of the access token payload the gateway acts on.
// The token is issued and signed by the platform API; the gateway does not
// hold the signing secret, so the payload is decoded without signature
// verification and trusted only for expiry and UI gating. Authorization
// proper is enforced upstream on every call.
type Claims struct {
	Subject   string
	Email     string
	Admin     bool
	ExpiresAt time.Time
}

type accessClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// DecodeClaims extracts the claims embedded in a bearer access token.
func DecodeClaims(tokenStr string) (Claims, error) {
	parser := jwt.NewParser()
	var parsed accessClaims
	if _, _, err := parser.ParseUnverified(tokenStr, &parsed); err != nil {
		return Claims{}, fmt.Errorf("decode access token: %w", err)
	}

	claims := Claims{
		Subject: parsed.Subject,
		Email:   parsed.Email,
		Admin:   parsed.Admin,
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}

// Token is the cached credential for one browser session. It is the only
// state the gateway persists outside memory.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`

	// Derived from AccessToken; re-derived whenever the token changes.
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewToken decodes the access token's claims into a cacheable Token.
func NewToken(accessToken, refreshToken, tokenType string) (Token, error) {
	claims, err := DecodeClaims(accessToken)
	if err != nil {
		return Token{}, err
	}
	if tokenType == "" {
		tokenType = "bearer"
	}
	return Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		Subject:      claims.Subject,
		Email:        claims.Email,
		Admin:        claims.Admin,
		ExpiresAt:    claims.ExpiresAt,
	}, nil
}

// Expired reports whether the expiry claim has passed. A token without an
// expiry claim is treated as expired: the issuer always sets one, so its
// absence means the payload is not one of ours.
func (t Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.After(t.ExpiresAt.Add(expiryLeeway))
}
