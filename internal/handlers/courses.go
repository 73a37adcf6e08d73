package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"learnhub/gateway/internal/session"
	"learnhub/gateway/internal/upstream"
)

// ListCourses serves the catalog. Browsing works signed out; a live
// session adds the caller's like and purchase flags to the listing.
func (h HandlerSet) ListCourses(c *gin.Context) {
	accessToken := ""
	subject := ""
	if sessionID, err := c.Cookie(h.cfg.Session.CookieName); err == nil && sessionID != "" {
		token, err := h.sessions.Get(c.Request.Context(), sessionID)
		if err == nil && !token.Expired(time.Now()) {
			accessToken = token.AccessToken
			subject = token.Subject
		} else if !errors.Is(err, session.ErrNotFound) && err != nil {
			h.log.Error().Err(err).Msg("session lookup failed")
		}
	}

	courses, err := h.catalog.Courses(c.Request.Context(), accessToken, subject)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h HandlerSet) CreateCourse(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")
	duration := c.PostForm("duration")
	price, err := strconv.ParseInt(c.PostForm("price_cents"), 10, 64)
	if title == "" || duration == "" || err != nil || price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "title, duration and a positive price are required",
		})
		return
	}

	input := upstream.CreateCourseInput{
		Title:       title,
		Description: description,
		Price:       price,
		Duration:    duration,
	}
	if file, header, err := c.Request.FormFile("media"); err == nil {
		defer file.Close()
		input.Media = file
		input.MediaName = header.Filename
	}

	course, err := h.api.CreateCourse(c.Request.Context(), token.AccessToken, input)
	if err != nil {
		h.fail(c, err)
		return
	}

	// New courses must show up on the next browse for everyone, so every
	// cached view is dropped, not just the public one.
	h.catalog.InvalidateAll(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func (h HandlerSet) PurchaseCourse(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	courseID := c.Param("id")
	course, err := h.api.PurchaseCourse(c.Request.Context(), token.AccessToken, courseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.catalog.ApplyPurchase(c.Request.Context(), token.Subject, course)

	// The wallet mirror is refetched wholesale after any mutating action.
	wallet, err := h.fetchWallet(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"course": course,
		"wallet": wallet,
	})
}

func (h HandlerSet) LikeCourse(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	courseID := c.Param("id")
	result, err := h.api.LikeCourse(c.Request.Context(), token.AccessToken, courseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.catalog.ApplyLike(c.Request.Context(), token.Subject, courseID, result)

	c.JSON(http.StatusOK, gin.H{
		"liked":      result.Liked,
		"like_count": result.LikeCount,
	})
}

func (h HandlerSet) DownloadCourse(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	download, err := h.api.DownloadCourse(c.Request.Context(), token.AccessToken, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer download.Body.Close()

	if download.ContentType != "" {
		c.Header("Content-Type", download.ContentType)
	}
	if download.Length > 0 {
		c.Header("Content-Length", strconv.FormatInt(download.Length, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.Body); err != nil {
		h.log.Error().Err(err).Str("course_id", c.Param("id")).Msg("download relay interrupted")
	}
}
