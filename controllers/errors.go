package controllers

import (
	"errors"
	"net/http"

	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/gin-gonic/gin"
)

// respondError maps the orchestrator's error taxonomy onto HTTP status
// codes. Unknown errors become a plain 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrConflict), errors.Is(err, game.ErrInvalidState), errors.Is(err, game.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
