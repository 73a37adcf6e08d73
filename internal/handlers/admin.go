package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	users, err := h.api.ListUsers(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h HandlerSet) AdminPromoteUser(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	userID := c.Param("id")
	user, err := h.api.PromoteUser(c.Request.Context(), token.AccessToken, userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	userID := c.Param("id")
	if userID == token.Subject {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "you cannot delete your own account from the admin panel",
		})
		return
	}

	if err := h.api.DeleteUser(c.Request.Context(), token.AccessToken, userID); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
