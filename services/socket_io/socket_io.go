package socket_io

import (
	"log"
	"time"

	"github.com/inukaki/dorokei-app-back/services/auth"
	"github.com/inukaki/dorokei-app-back/services/game"
	"github.com/inukaki/dorokei-app-back/services/socket_io/handlers"
	socketio_types "github.com/inukaki/dorokei-app-back/services/socket_io/types"
	"github.com/inukaki/dorokei-app-back/services/store"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type SocketService struct {
	Server *socketio_types.SocketServer
}

// NewSocketService creates the socket.io server up front so the
// broadcaster can be handed to the orchestrator before Start wires the
// connection handlers.
func NewSocketService() *SocketService {
	server := socketio_types.NewSocketServer()
	server.Sio_server = socket.NewServer(nil, nil)
	return &SocketService{Server: server}
}

func (s *SocketService) Broadcaster() *Broadcaster {
	return NewBroadcaster(s.Server.Sio_server)
}

// Start mounts the socket.io server on the gin router and wires the
// connection lifecycle: handshake auth, room attach via
// player:reconnect, and disconnect bookkeeping.
func (s *SocketService) Start(router *gin.Engine, orchestrator *game.Orchestrator,
	authService *auth.Service, st store.RoomStore) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// Higher ping interval and timeout to reduce network load and
	// support slower networks.
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s.Server.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		actor, ok := verifyConnection(client, authService, st)
		if !ok {
			return
		}

		s.Server.Bind(client.Id(), actor)
		topic := RoomTopic(actor.RoomID)

		log.Printf("[SOCKET] Player %s connected (socket %s, room %s)",
			actor.PlayerID, client.Id(), actor.RoomID)

		// Attach to the room's broadcast topic and receive the current
		// snapshot. Used both for the first attach after join and for
		// genuine reconnects.
		client.On("player:reconnect", handlers.HandleReconnect(orchestrator, client, actor, topic))

		client.On("disconnecting", handlers.HandleDisconnecting(s.Server, orchestrator, client, topic))
	})

	router.POST("/socket.io/*f", gin.WrapH(s.Server.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(s.Server.Sio_server.ServeHandler(c)))

	log.Println("Socket server started")
}

func (s *SocketService) Close() {
	if s.Server != nil && s.Server.Sio_server != nil {
		s.Server.Sio_server.Close(nil)
	}
}
