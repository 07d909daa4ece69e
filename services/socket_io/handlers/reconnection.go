package handlers

import (
	"log"

	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleReconnect attaches an authenticated connection to its room's
// broadcast topic and flips the player back to connected. The fresh
// snapshot goes to the reconnecting client first, then the usual room
// broadcast follows, in that order.
func HandleReconnect(orchestrator *game.Orchestrator, client *socket.Socket,
	actor game.Actor, roomTopic socket.Room) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[RECONNECT] Player %s reconnecting to room %s, socket %s",
			actor.PlayerID, actor.RoomID, client.Id())

		snapshot, err := orchestrator.Reconnect(actor)
		if err != nil {
			log.Printf("[RECONNECT-ERROR] Player %s, room %s: %v", actor.PlayerID, actor.RoomID, err)
			client.Emit("error", gin.H{"error": "Reconnect failed"})
			return
		}

		client.Join(roomTopic)

		// Snapshot to this connection only, then the room-wide push.
		client.Emit("status-updated", *snapshot)
		orchestrator.PushStatus(actor.RoomID)

		client.Emit("reconnected", gin.H{
			"success": true,
			"roomId":  actor.RoomID,
		})
	}
}
