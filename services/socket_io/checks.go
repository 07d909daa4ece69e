package socket_io

import (
	"errors"
	"log"

	"github.com/inukaki/dorokei-app-back/services/auth"
	"github.com/inukaki/dorokei-app-back/services/game"
	"github.com/inukaki/dorokei-app-back/services/store"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// verifyConnection authenticates a fresh socket from its handshake
// auth data and checks the bound player still exists in the bound
// room. On failure the client gets an error event and is disconnected.
func verifyConnection(client *socket.Socket, authService *auth.Service, st store.RoomStore) (game.Actor, bool) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		log.Printf("[SOCKET-AUTH] Missing handshake auth data, socket %s", client.Id())
		client.Emit("error", gin.H{"error": "Authentication failed: missing auth data"})
		client.Disconnect(true)
		return game.Actor{}, false
	}

	token, ok := authData["token"].(string)
	if !ok || token == "" {
		log.Printf("[SOCKET-AUTH] Missing token in handshake, socket %s", client.Id())
		client.Emit("error", gin.H{"error": "Authentication failed: missing token"})
		client.Disconnect(true)
		return game.Actor{}, false
	}

	claims, err := authService.Verify(token)
	if err != nil {
		log.Printf("[SOCKET-AUTH] Invalid token, socket %s: %v", client.Id(), err)
		client.Emit("error", gin.H{"error": "Authentication failed: invalid token"})
		client.Disconnect(true)
		return game.Actor{}, false
	}

	player, err := st.FindPlayerByID(claims.PlayerID)
	if err != nil || player.RoomID != claims.RoomID {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("[SOCKET-AUTH] Store error for player %s: %v", claims.PlayerID, err)
		}
		client.Emit("error", gin.H{"error": "Authentication failed: unknown player"})
		client.Disconnect(true)
		return game.Actor{}, false
	}

	return game.Actor{
		PlayerID: claims.PlayerID,
		RoomID:   claims.RoomID,
		IsHost:   claims.IsHost,
	}, true
}
