package controllers

import (
	"net/http"

	"github.com/inukaki/dorokei-app-back/middleware"
	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/gin-gonic/gin"
)

// RoomsController exposes the room lifecycle commands over HTTP. Every
// handler is a thin shell: bind input, call the orchestrator, map the
// error taxonomy onto a status code.
type RoomsController struct {
	Orchestrator *game.Orchestrator
}

type createRoomRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
	Passcode   string `json:"passcode" binding:"required"`
}

// POST /rooms - create a room together with its host player
func (rc *RoomsController) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerName and passcode are required"})
		return
	}

	result, err := rc.Orchestrator.CreateRoom(req.PlayerName, req.Passcode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type joinRoomRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
	Passcode   string `json:"passcode" binding:"required"`
}

// POST /rooms/join - join the waiting room matching the passcode
func (rc *RoomsController) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerName and passcode are required"})
		return
	}

	result, err := rc.Orchestrator.JoinRoom(req.PlayerName, req.Passcode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /rooms - list all rooms
func (rc *RoomsController) ListRooms(c *gin.Context) {
	rooms, err := rc.Orchestrator.ListRooms()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GET /rooms/status - full room state for the calling player
func (rc *RoomsController) GetStatus(c *gin.Context) {
	result, err := rc.Orchestrator.GetStatus(middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /rooms/result - post-game result view
func (rc *RoomsController) GetResult(c *gin.Context) {
	result, err := rc.Orchestrator.GetResult(middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateSettingsRequest struct {
	DurationSeconds    *int `json:"durationSeconds" binding:"omitempty,gt=0"`
	GracePeriodSeconds *int `json:"gracePeriodSeconds" binding:"omitempty,gte=0"`
	MaxPlayers         *int `json:"maxPlayers" binding:"omitempty,gt=0"`
}

// PATCH /rooms/settings - update game settings (host only)
func (rc *RoomsController) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings"})
		return
	}

	err := rc.Orchestrator.UpdateSettings(middleware.CurrentActor(c), game.SettingsUpdate{
		DurationSeconds:    req.DurationSeconds,
		GracePeriodSeconds: req.GracePeriodSeconds,
		MaxPlayers:         req.MaxPlayers,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings updated"})
}

// POST /rooms/start - start the game (host only)
func (rc *RoomsController) StartGame(c *gin.Context) {
	if err := rc.Orchestrator.StartGame(middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game started"})
}

// POST /rooms/terminate - force-finish the game (host only)
func (rc *RoomsController) TerminateGame(c *gin.Context) {
	if err := rc.Orchestrator.TerminateGame(middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game terminated"})
}

// POST /rooms/close - stop accepting new players (host only)
func (rc *RoomsController) CloseEntry(c *gin.Context) {
	if err := rc.Orchestrator.CloseEntry(middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry closed"})
}

// POST /rooms/reset - return a finished room to the lobby (host only)
func (rc *RoomsController) ResetToLobby(c *gin.Context) {
	if err := rc.Orchestrator.ResetToLobby(middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "returned to lobby"})
}

// DELETE /rooms - disband the room (host only)
func (rc *RoomsController) DisbandRoom(c *gin.Context) {
	if err := rc.Orchestrator.DisbandRoom(middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "room disbanded"})
}

// POST /rooms/leave - leave the room; a leaving host disbands it
func (rc *RoomsController) LeaveRoom(c *gin.Context) {
	result, err := rc.Orchestrator.LeaveRoom(middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
