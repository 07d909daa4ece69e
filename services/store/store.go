package store

import (
	"errors"

	models "github.com/inukaki/dorokei-app-back/models/postgres"
)

var (
	// ErrNotFound is returned when a room or player row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicatePasscode is returned when a room creation collides
	// with an existing passcode digest. Uniqueness is enforced by the
	// database index, so two concurrent creations cannot both succeed.
	ErrDuplicatePasscode = errors.New("passcode already in use")
)

// RoomStore is the persistence contract the orchestrator depends on.
// Implementations must provide read-after-write consistency within a
// single process.
type RoomStore interface {
	CreateRoom(room *models.Room) error
	FindRoomByID(id string) (*models.Room, error)
	FindRoomByPasscodeHash(hash string) (*models.Room, error)
	ListRooms() ([]models.Room, error)
	UpdateRoom(id string, fields map[string]interface{}) error
	// DeleteRoom removes the room and cascades removal of its players.
	DeleteRoom(id string) error

	CreatePlayer(player *models.Player) error
	FindPlayerByID(id string) (*models.Player, error)
	FindPlayersByRoom(roomID string) ([]models.Player, error)
	CountPlayersInRoom(roomID string) (int64, error)
	UpdatePlayer(id string, fields map[string]interface{}) error
	DeletePlayer(id string) error
	// ResetCaptures clears the captured flag of every thief in the room.
	ResetCaptures(roomID string) error
}
