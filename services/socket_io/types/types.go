package socketio_types

import (
	"sync"

	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer holds the socket.io server and the connection index:
// which authenticated (player, room) pair each transport connection is
// bound to. A player may hold several connections at once; they are
// not deduplicated, the last one to flip the connected flag wins.
type SocketServer struct {
	Sio_server *socket.Server

	mutex    sync.RWMutex
	bindings map[socket.SocketId]game.Actor
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		bindings: make(map[socket.SocketId]game.Actor),
	}
}

func (s *SocketServer) Bind(id socket.SocketId, actor game.Actor) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.bindings[id] = actor
}

func (s *SocketServer) Unbind(id socket.SocketId) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.bindings, id)
}

func (s *SocketServer) Lookup(id socket.SocketId) (game.Actor, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	actor, exists := s.bindings[id]
	return actor, exists
}
