package store

import (
	"sync"
	"time"

	models "github.com/inukaki/dorokei-app-back/models/postgres"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MemoryStore is an in-memory RoomStore used by tests and local runs
// without a database. It enforces the same passcode-digest uniqueness
// as the PostgreSQL index so creation races behave identically.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[string]*models.Room
	players map[string]*models.Player
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]*models.Room),
		players: make(map[string]*models.Player),
	}
}

func (s *MemoryStore) CreateRoom(room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.PasscodeHash == room.PasscodeHash {
			return ErrDuplicatePasscode
		}
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	room.CreatedAt = time.Now()
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *MemoryStore) FindRoomByID(id string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *MemoryStore) FindRoomByPasscodeHash(hash string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.PasscodeHash == hash {
			cp := *room
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListRooms() ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

func (s *MemoryStore) UpdateRoom(id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return ErrNotFound
	}
	applyRoomFields(room, fields)
	room.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteRoom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(s.rooms, id)
	// Cascade, same as the OnDelete constraint.
	for pid, p := range s.players {
		if p.RoomID == id {
			delete(s.players, pid)
		}
	}
	return nil
}

func (s *MemoryStore) CreatePlayer(player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	player.CreatedAt = time.Now()
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *MemoryStore) FindPlayerByID(id string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *player
	return &cp, nil
}

func (s *MemoryStore) FindPlayersByRoom(roomID string) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var players []models.Player
	for _, p := range s.players {
		if p.RoomID == roomID {
			players = append(players, *p)
		}
	}
	return players, nil
}

func (s *MemoryStore) CountPlayersInRoom(roomID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.players {
		if p.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) UpdatePlayer(id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	applyPlayerFields(player, fields)
	player.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeletePlayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return ErrNotFound
	}
	delete(s.players, id)
	return nil
}

func (s *MemoryStore) ResetCaptures(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.RoomID == roomID && p.Role == models.RoleThief {
			p.IsCaptured = false
		}
	}
	return nil
}

func applyRoomFields(room *models.Room, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "status":
			room.Status = value.(models.RoomStatus)
		case "duration_seconds":
			room.DurationSeconds = value.(int)
		case "grace_period_seconds":
			room.GracePeriodSeconds = value.(int)
		case "max_players":
			room.MaxPlayers = value.(int)
		case "host_player_id":
			room.HostPlayerID = value.(string)
		case "started_at":
			if value == nil {
				room.StartedAt = nil
			} else {
				t := value.(time.Time)
				room.StartedAt = &t
			}
		case "last_result":
			if value == nil {
				room.LastResult = nil
			} else {
				room.LastResult = value.(datatypes.JSON)
			}
		}
	}
}

func applyPlayerFields(player *models.Player, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "is_captured":
			player.IsCaptured = value.(bool)
		case "is_connected":
			player.IsConnected = value.(bool)
		case "player_name":
			player.PlayerName = value.(string)
		}
	}
}
