package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/gateway/internal/ids"
	"learnhub/gateway/internal/middleware"
	"learnhub/gateway/internal/session"
	"learnhub/gateway/internal/upstream"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	user, err := h.api.Register(c.Request.Context(), upstream.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.failPreAuth(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	tokens, err := h.api.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.failPreAuth(c, err)
		return
	}

	token, err := session.NewToken(tokens.AccessToken, tokens.RefreshToken, tokens.TokenType)
	if err != nil {
		h.log.Error().Err(err).Msg("issued token is not decodable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "platform_error", "message": "received an unusable credential"})
		return
	}

	sessionID := ids.New()
	if err := h.sessions.Save(c.Request.Context(), sessionID, token); err != nil {
		h.log.Error().Err(err).Msg("save session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}
	middleware.SetSessionCookie(c, h.cfg.Session, sessionID)

	user, err := h.api.Me(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"admin":      token.Admin,
		"expires_at": token.ExpiresAt,
	})
}

// Refresh replaces the cached token pair in place. It deliberately skips
// the session gate: the access token may already be past its expiry while
// the refresh token is still good.
func (h HandlerSet) Refresh(c *gin.Context) {
	sessionID, err := c.Cookie(h.cfg.Session.CookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	token, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil || token.RefreshToken == "" {
		middleware.ClearSessionCookie(c, h.cfg.Session)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	tokens, err := h.api.Refresh(c.Request.Context(), token.RefreshToken)
	if err != nil {
		c.Set(middleware.ContextSessionID, sessionID)
		h.fail(c, err)
		return
	}

	refreshed, err := session.NewToken(tokens.AccessToken, tokens.RefreshToken, tokens.TokenType)
	if err != nil {
		h.log.Error().Err(err).Msg("refreshed token is not decodable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "platform_error", "message": "received an unusable credential"})
		return
	}

	if err := h.sessions.Save(c.Request.Context(), sessionID, refreshed); err != nil {
		h.log.Error().Err(err).Msg("save refreshed session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"admin":      refreshed.Admin,
		"expires_at": refreshed.ExpiresAt,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.cfg.Session.CookieName); err == nil && sessionID != "" {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			h.log.Error().Err(err).Msg("delete session failed")
		}
	}
	middleware.ClearSessionCookie(c, h.cfg.Session)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	user, err := h.api.Me(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "an image file is required"})
		return
	}
	defer file.Close()

	user, err := h.api.UpdateAvatar(c.Request.Context(), token.AccessToken, header.Filename, file)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
