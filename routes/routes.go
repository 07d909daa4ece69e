package routes

import (
	"github.com/inukaki/dorokei-app-back/controllers"
	"github.com/inukaki/dorokei-app-back/middleware"
	"github.com/inukaki/dorokei-app-back/services/auth"
	"github.com/inukaki/dorokei-app-back/services/game"
	"github.com/inukaki/dorokei-app-back/services/store"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, orchestrator *game.Orchestrator,
	authService *auth.Service, st store.RoomStore) {
	roomsController := &controllers.RoomsController{Orchestrator: orchestrator}
	playersController := &controllers.PlayersController{Orchestrator: orchestrator}

	rooms := router.Group("/rooms")
	{
		rooms.POST("", roomsController.CreateRoom)
		rooms.POST("/join", roomsController.JoinRoom)
		rooms.GET("", roomsController.ListRooms)

		// Routes that require a player credential
		authenticated := rooms.Group("")
		authenticated.Use(middleware.RoomAuth(authService, st))
		{
			authenticated.GET("/status", roomsController.GetStatus)
			authenticated.GET("/result", roomsController.GetResult)
			authenticated.POST("/leave", roomsController.LeaveRoom)
			authenticated.PATCH("/players/:playerId/capture", playersController.CapturePlayer)
			authenticated.PATCH("/players/:playerId/release", playersController.ReleasePlayer)

			// Host-only room lifecycle commands
			host := authenticated.Group("")
			host.Use(middleware.HostOnly())
			{
				host.PATCH("/settings", roomsController.UpdateSettings)
				host.POST("/start", roomsController.StartGame)
				host.POST("/terminate", roomsController.TerminateGame)
				host.POST("/close", roomsController.CloseEntry)
				host.POST("/reset", roomsController.ResetToLobby)
				host.DELETE("", roomsController.DisbandRoom)
			}
		}
	}
}
