package controllers

import (
	"net/http"

	"github.com/inukaki/dorokei-app-back/middleware"
	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/gin-gonic/gin"
)

// PlayersController exposes the capture/release commands.
type PlayersController struct {
	Orchestrator *game.Orchestrator
}

// PATCH /rooms/players/:playerId/capture - capture a thief (police only)
func (pc *PlayersController) CapturePlayer(c *gin.Context) {
	targetID := c.Param("playerId")
	if err := pc.Orchestrator.CapturePlayer(middleware.CurrentActor(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "player captured"})
}

// PATCH /rooms/players/:playerId/release - release a captured thief (thieves only)
func (pc *PlayersController) ReleasePlayer(c *gin.Context) {
	targetID := c.Param("playerId")
	if err := pc.Orchestrator.ReleasePlayer(middleware.CurrentActor(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "player released"})
}
