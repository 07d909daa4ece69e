package middleware

import (
	"net/http"
	"strings"

	"github.com/inukaki/dorokei-app-back/services/auth"
	"github.com/inukaki/dorokei-app-back/services/game"
	"github.com/inukaki/dorokei-app-back/services/store"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// RoomAuth verifies the Bearer player token and checks the bound
// player still exists in the bound room. The resulting actor is
// stashed in the request context for the handlers.
func RoomAuth(authService *auth.Service, st store.RoomStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing player token"})
			return
		}

		claims, err := authService.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid player token"})
			return
		}

		player, err := st.FindPlayerByID(claims.PlayerID)
		if err != nil || player.RoomID != claims.RoomID {
			// Player row is gone: left, kicked out by a disband, or the
			// room no longer exists. The credential is useless either way.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Player no longer in room"})
			return
		}

		c.Set(actorKey, game.Actor{
			PlayerID: claims.PlayerID,
			RoomID:   claims.RoomID,
			IsHost:   claims.IsHost,
		})
		c.Next()
	}
}

// HostOnly rejects non-host actors. Must run after RoomAuth.
func HostOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if !actor.IsHost {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Host privileges required"})
			return
		}
		c.Next()
	}
}

// CurrentActor returns the actor set by RoomAuth.
func CurrentActor(c *gin.Context) game.Actor {
	value, exists := c.Get(actorKey)
	if !exists {
		return game.Actor{}
	}
	return value.(game.Actor)
}
