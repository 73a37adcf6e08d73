package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/gateway/internal/config"
	"learnhub/gateway/internal/session"
)

const (
	ContextSessionID = "session_id"
	ContextToken     = "session_token"
)

// Session gates authenticated routes on the cached token. A missing cookie,
// a missing cache entry, or an expired token are all treated identically to
// "logged out": the entry is purged, the cookie cleared, and the browser
// told to sign in again. Mutating routes behind this gate therefore always
// see a present, non-expired token.
func Session(store session.Store, cfg config.SessionConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "authentication_required",
				"message": "sign in to perform this action",
			})
			return
		}

		token, err := store.Get(c.Request.Context(), sessionID)
		if errors.Is(err, session.ErrNotFound) {
			ClearSessionCookie(c, cfg)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "authentication_required",
				"message": "sign in to perform this action",
			})
			return
		}
		if err != nil {
			// A store outage is not a logout. The cookie stays so the
			// session resumes once the store is back.
			log.Error().Err(err).Msg("session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "session_unavailable",
				"message": "the session store is unavailable, try again shortly",
			})
			return
		}

		if token.Expired(time.Now()) {
			if err := store.Delete(c.Request.Context(), sessionID); err != nil {
				log.Error().Err(err).Msg("purge expired session failed")
			}
			ClearSessionCookie(c, cfg)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "session_expired",
				"message": "your session has expired, sign in again",
			})
			return
		}

		c.Set(ContextSessionID, sessionID)
		c.Set(ContextToken, token)

		c.Next()
	}
}

// RequireAdmin gates admin routes on the admin claim embedded in the
// session token. The claim is read from the currently cached token on
// every request, so a refresh that drops the claim takes effect
// immediately.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenVal, exists := c.Get(ContextToken)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication_required",
			})
			return
		}
		token, ok := tokenVal.(session.Token)
		if !ok || !token.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "administrator access required",
			})
			return
		}

		c.Next()
	}
}

// SetSessionCookie installs the opaque session ID the browser will carry.
func SetSessionCookie(c *gin.Context, cfg config.SessionConfig, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, sessionID, int(cfg.TTL.Seconds()), "/", cfg.CookieDomain, cfg.Secure, true)
}

func ClearSessionCookie(c *gin.Context, cfg config.SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", cfg.CookieDomain, cfg.Secure, true)
}
