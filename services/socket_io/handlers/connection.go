package handlers

import (
	"log"

	"github.com/inukaki/dorokei-app-back/services/game"
	socketio_types "github.com/inukaki/dorokei-app-back/services/socket_io/types"

	"github.com/zishang520/socket.io/v2/socket"
)

// HandleDisconnecting handles socket.io client disconnections: the
// connection is unbound and detached from the room topic, the player
// is marked disconnected and the room is notified. The player record
// itself survives, so the credential can reconnect later.
func HandleDisconnecting(sio *socketio_types.SocketServer, orchestrator *game.Orchestrator,
	client *socket.Socket, roomTopic socket.Room) func(args ...interface{}) {
	return func(args ...interface{}) {
		actor, exists := sio.Lookup(client.Id())
		if !exists {
			return
		}
		log.Printf("[DISCONNECT] Socket %s (player %s) disconnecting from room %s",
			client.Id(), actor.PlayerID, actor.RoomID)

		client.Leave(roomTopic)
		sio.Unbind(client.Id())

		orchestrator.HandleDisconnect(actor.PlayerID, actor.RoomID)
	}
}
