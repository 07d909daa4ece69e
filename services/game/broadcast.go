package game

import (
	"time"

	models "github.com/inukaki/dorokei-app-back/models/postgres"
)

type TerminationReason string

const (
	ReasonTimeUp           TerminationReason = "TIME_UP"
	ReasonAllCaptured      TerminationReason = "ALL_CAPTURED"
	ReasonTerminatedByHost TerminationReason = "TERMINATED_BY_HOST"
)

// RoomState and PlayerState form the snapshot pushed on every
// mutation. Field names are part of the client contract.
type RoomState struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	DurationSeconds    int        `json:"durationSeconds"`
	GracePeriodSeconds int        `json:"gracePeriodSeconds"`
	MaxPlayers         int        `json:"maxPlayers"`
	HostPlayerID       string     `json:"hostPlayerId"`
	StartedAt          *time.Time `json:"startedAt"`
}

type PlayerState struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsCaptured  bool   `json:"isCaptured"`
	IsConnected bool   `json:"isConnected"`
}

type StatusSnapshot struct {
	Room    RoomState     `json:"room"`
	Players []PlayerState `json:"players"`
}

// GameResult is the frozen record of a finished game. It is persisted
// with the FINISHED transition, survives the reset back to the lobby,
// and is replaced when the next game starts.
type GameResult struct {
	Reason     TerminationReason `json:"reason,omitempty"`
	FinishedAt time.Time         `json:"finishedAt,omitzero"`
	Players    []PlayerState     `json:"players"`
}

// TickPayload is emitted once per second while a game runs.
// GracePeriodRemaining is only present during the grace period; it is
// always >= 1 there, so omitempty never hides a real value.
type TickPayload struct {
	ElapsedSeconds       int  `json:"elapsedSeconds"`
	RemainingSeconds     int  `json:"remainingSeconds"`
	TotalSeconds         int  `json:"totalSeconds"`
	IsGracePeriod        bool `json:"isGracePeriod"`
	GracePeriodRemaining int  `json:"gracePeriodRemaining,omitempty"`
}

// Broadcaster fans events out to every connection subscribed to a
// room. Delivery is best effort: implementations log per-subscriber
// failures and never propagate them back into the command that
// triggered the push.
type Broadcaster interface {
	StatusUpdated(roomID string, snapshot StatusSnapshot)
	TimerTick(roomID string, tick TickPayload)
	PlayerCaptured(roomID, playerID, playerName string)
	PlayerReleased(roomID, playerID, playerName string)
	PlayerLeft(roomID, playerID, playerName string)
	RoomDisbanded(roomID string)
	GameTerminated(roomID string, reason TerminationReason)
}

// SnapshotCache is the optional Redis-backed fast path for the latest
// room snapshot. It is written after every commit and is never the
// source of truth.
type SnapshotCache interface {
	SaveRoomSnapshot(roomID string, snapshot StatusSnapshot) error
	GetRoomSnapshot(roomID string) (*StatusSnapshot, error)
	DeleteRoomSnapshot(roomID string) error
}

func newStatusSnapshot(room *models.Room, players []models.Player) StatusSnapshot {
	return StatusSnapshot{
		Room: RoomState{
			ID:                 room.ID,
			Status:             string(room.Status),
			DurationSeconds:    room.DurationSeconds,
			GracePeriodSeconds: room.GracePeriodSeconds,
			MaxPlayers:         room.MaxPlayers,
			HostPlayerID:       room.HostPlayerID,
			StartedAt:          room.StartedAt,
		},
		Players: toPlayerStates(players),
	}
}

func toPlayerStates(players []models.Player) []PlayerState {
	states := make([]PlayerState, 0, len(players))
	for _, p := range players {
		states = append(states, PlayerState{
			ID:          p.ID,
			Name:        p.PlayerName,
			Role:        string(p.Role),
			IsCaptured:  p.IsCaptured,
			IsConnected: p.IsConnected,
		})
	}
	return states
}
