package store

import (
	"errors"
	"testing"
	"time"

	models "github.com/inukaki/dorokei-app-back/models/postgres"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	_ RoomStore = (*MemoryStore)(nil)
	_ RoomStore = (*GormStore)(nil)
)

func newWaitingRoom(t *testing.T, s *MemoryStore, hash string) *models.Room {
	t.Helper()
	room := &models.Room{
		PasscodeHash:       hash,
		Status:             models.RoomStatusWaiting,
		DurationSeconds:    600,
		GracePeriodSeconds: 30,
		MaxPlayers:         15,
	}
	require.NoError(t, s.CreateRoom(room))
	return room
}

func TestMemoryStoreRoomLifecycle(t *testing.T) {
	s := NewMemoryStore()

	room := newWaitingRoom(t, s, "hash-1")
	require.NotEmpty(t, room.ID)

	found, err := s.FindRoomByID(room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)

	found, err = s.FindRoomByPasscodeHash("hash-1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)

	_, err = s.FindRoomByPasscodeHash("hash-2")
	assert.ErrorIs(t, err, ErrNotFound)

	startedAt := time.Now()
	require.NoError(t, s.UpdateRoom(room.ID, map[string]interface{}{
		"status":     models.RoomStatusInGame,
		"started_at": startedAt,
	}))
	found, err = s.FindRoomByID(room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusInGame, found.Status)
	require.NotNil(t, found.StartedAt)

	require.NoError(t, s.UpdateRoom(room.ID, map[string]interface{}{"started_at": nil}))
	found, err = s.FindRoomByID(room.ID)
	require.NoError(t, err)
	assert.Nil(t, found.StartedAt)

	result := datatypes.JSON(`{"reason":"TIME_UP"}`)
	require.NoError(t, s.UpdateRoom(room.ID, map[string]interface{}{"last_result": result}))
	found, err = s.FindRoomByID(room.ID)
	require.NoError(t, err)
	assert.Equal(t, result, found.LastResult)

	require.NoError(t, s.UpdateRoom(room.ID, map[string]interface{}{"last_result": nil}))
	found, err = s.FindRoomByID(room.ID)
	require.NoError(t, err)
	assert.Empty(t, found.LastResult)

	require.NoError(t, s.DeleteRoom(room.ID))
	assert.ErrorIs(t, s.DeleteRoom(room.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdateRoom(room.ID, map[string]interface{}{"max_players": 5}), ErrNotFound)
}

func TestMemoryStoreDuplicatePasscode(t *testing.T) {
	s := NewMemoryStore()

	newWaitingRoom(t, s, "hash-1")
	err := s.CreateRoom(&models.Room{PasscodeHash: "hash-1"})
	assert.ErrorIs(t, err, ErrDuplicatePasscode)

	// The digest frees up once the room is gone.
	room, err := s.FindRoomByPasscodeHash("hash-1")
	require.NoError(t, err)
	require.NoError(t, s.DeleteRoom(room.ID))
	assert.NoError(t, s.CreateRoom(&models.Room{PasscodeHash: "hash-1"}))
}

func TestMemoryStoreDeleteRoomCascades(t *testing.T) {
	s := NewMemoryStore()
	room := newWaitingRoom(t, s, "hash-1")

	player := &models.Player{PlayerName: "Bob", Role: models.RoleThief, RoomID: room.ID}
	require.NoError(t, s.CreatePlayer(player))

	count, err := s.CountPlayersInRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.DeleteRoom(room.ID))
	_, err = s.FindPlayerByID(player.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePlayers(t *testing.T) {
	s := NewMemoryStore()
	room := newWaitingRoom(t, s, "hash-1")

	police := &models.Player{PlayerName: "Alice", Role: models.RolePolice, RoomID: room.ID}
	thief := &models.Player{PlayerName: "Bob", Role: models.RoleThief, RoomID: room.ID}
	require.NoError(t, s.CreatePlayer(police))
	require.NoError(t, s.CreatePlayer(thief))

	players, err := s.FindPlayersByRoom(room.ID)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	require.NoError(t, s.UpdatePlayer(thief.ID, map[string]interface{}{"is_captured": true}))
	found, err := s.FindPlayerByID(thief.ID)
	require.NoError(t, err)
	assert.True(t, found.IsCaptured)

	// ResetCaptures clears thieves only.
	require.NoError(t, s.UpdatePlayer(police.ID, map[string]interface{}{"is_connected": false}))
	require.NoError(t, s.ResetCaptures(room.ID))
	found, err = s.FindPlayerByID(thief.ID)
	require.NoError(t, err)
	assert.False(t, found.IsCaptured)

	require.NoError(t, s.DeletePlayer(thief.ID))
	assert.ErrorIs(t, s.DeletePlayer(thief.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdatePlayer(thief.ID, map[string]interface{}{"is_captured": false}), ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	room := newWaitingRoom(t, s, "hash-1")

	found, err := s.FindRoomByID(room.ID)
	require.NoError(t, err)
	found.MaxPlayers = 1

	again, err := s.FindRoomByID(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, again.MaxPlayers)
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)

	other := errors.New("connection refused")
	assert.Equal(t, other, translate(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New(`duplicate key value violates unique constraint "idx_rooms_passcode_hash"`)))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}
