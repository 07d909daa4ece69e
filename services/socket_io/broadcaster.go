package socket_io

import (
	"fmt"
	"time"

	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// RoomTopic is the socket.io room every connection of a game room is
// subscribed to.
func RoomTopic(roomID string) socket.Room {
	return socket.Room("room:" + roomID)
}

// Broadcaster pushes committed state to every subscriber of a room's
// topic. Emit is fire-and-forget per subscriber; a slow or dead client
// never fails the command that triggered the push.
type Broadcaster struct {
	Sio *socket.Server
}

func NewBroadcaster(sio *socket.Server) *Broadcaster {
	return &Broadcaster{Sio: sio}
}

func (b *Broadcaster) StatusUpdated(roomID string, snapshot game.StatusSnapshot) {
	b.Sio.To(RoomTopic(roomID)).Emit("status-updated", snapshot)
}

func (b *Broadcaster) TimerTick(roomID string, tick game.TickPayload) {
	b.Sio.To(RoomTopic(roomID)).Emit("timer-tick", tick)
}

func (b *Broadcaster) PlayerCaptured(roomID, playerID, playerName string) {
	b.Sio.To(RoomTopic(roomID)).Emit("player-captured", gin.H{
		"playerId":   playerID,
		"playerName": playerName,
		"message":    fmt.Sprintf("%s was captured", playerName),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (b *Broadcaster) PlayerReleased(roomID, playerID, playerName string) {
	b.Sio.To(RoomTopic(roomID)).Emit("player-released", gin.H{
		"playerId":   playerID,
		"playerName": playerName,
		"message":    fmt.Sprintf("%s was released", playerName),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (b *Broadcaster) PlayerLeft(roomID, playerID, playerName string) {
	b.Sio.To(RoomTopic(roomID)).Emit("player-left", gin.H{
		"playerId":   playerID,
		"playerName": playerName,
		"message":    fmt.Sprintf("%s left the room", playerName),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (b *Broadcaster) RoomDisbanded(roomID string) {
	b.Sio.To(RoomTopic(roomID)).Emit("room-disbanded", gin.H{
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (b *Broadcaster) GameTerminated(roomID string, reason game.TerminationReason) {
	b.Sio.To(RoomTopic(roomID)).Emit("game-terminated", gin.H{
		"reason":    reason,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
