package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/gateway/internal/catalog"
	"learnhub/gateway/internal/config"
	"learnhub/gateway/internal/middleware"
	"learnhub/gateway/internal/session"
	"learnhub/gateway/internal/upstream"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	api      *upstream.Client
	sessions session.Store
	catalog  *catalog.Catalog
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, api *upstream.Client, sessions session.Store, courseCatalog *catalog.Catalog) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		catalog:  courseCatalog,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		users := v1.Group("/users")
		users.Use(middleware.Session(h.sessions, h.cfg.Session, h.log))
		users.GET("/me", h.Me)
		users.PUT("/me/avatar", h.UpdateAvatar)

		courses := v1.Group("/courses")
		courses.GET("", h.ListCourses)

		ownedCourses := v1.Group("/courses")
		ownedCourses.Use(middleware.Session(h.sessions, h.cfg.Session, h.log))
		ownedCourses.POST("/:id/purchase", h.PurchaseCourse)
		ownedCourses.POST("/:id/like", h.LikeCourse)
		ownedCourses.GET("/:id/download", h.DownloadCourse)

		adminCourses := v1.Group("/courses")
		adminCourses.Use(
			middleware.Session(h.sessions, h.cfg.Session, h.log),
			middleware.RequireAdmin(),
		)
		adminCourses.POST("", h.CreateCourse)

		wallet := v1.Group("/wallet")
		wallet.Use(middleware.Session(h.sessions, h.cfg.Session, h.log))
		wallet.GET("", h.Wallet)
		wallet.POST("/deposits", h.InitiateDeposit)
		wallet.POST("/deposits/verify", h.VerifyDeposit)

		admin := v1.Group("/admin")
		admin.Use(
			middleware.Session(h.sessions, h.cfg.Session, h.log),
			middleware.RequireAdmin(),
		)
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users/:id/promote", h.AdminPromoteUser)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
	}
}

func currentToken(c *gin.Context) (session.Token, bool) {
	tokenVal, exists := c.Get(middleware.ContextToken)
	if !exists {
		return session.Token{}, false
	}
	token, ok := tokenVal.(session.Token)
	return token, ok
}

// forceLogout purges the cached token and clears the cookie. Used when the
// platform answers 401 on a call made with a token the gateway still
// considered live.
func (h HandlerSet) forceLogout(c *gin.Context) {
	if sessionID := c.GetString(middleware.ContextSessionID); sessionID != "" {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			h.log.Error().Err(err).Msg("purge session failed")
		}
	}
	middleware.ClearSessionCookie(c, h.cfg.Session)
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "session_expired",
		"message": "your session has expired, sign in again",
	})
}

// failPreAuth is fail for calls made before a session exists. A platform
// 401 here means the credentials were rejected, not that a session
// expired, so there is nothing to log out of.
func (h HandlerSet) failPreAuth(c *gin.Context, err error) {
	if errors.Is(err, upstream.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "invalid email or password",
		})
		return
	}
	h.fail(c, err)
}

// fail maps a platform call failure onto the gateway's error taxonomy:
// 401 forces logout, platform client errors pass through with the
// extracted message, everything else is a bad gateway.
func (h HandlerSet) fail(c *gin.Context, err error) {
	if errors.Is(err, upstream.ErrUnauthorized) {
		h.forceLogout(c)
		return
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error":   "platform_error",
			"message": apiErr.Message,
		})
		return
	}

	h.log.Error().Err(err).Msg("platform request failed")
	c.JSON(http.StatusBadGateway, gin.H{
		"error":   "platform_unreachable",
		"message": "the platform could not be reached, try again later",
	})
}
