package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "WAITING"
	RoomStatusClosed   RoomStatus = "CLOSED"
	RoomStatusInGame   RoomStatus = "IN_GAME"
	RoomStatusFinished RoomStatus = "FINISHED"
)

/*
 * 'Room' is one dorokei game session: the shared settings, the lifecycle
 * status and the roster of players that joined with the room's passcode.
 * The passcode digest is unique across all rooms, so duplicate creation
 * is rejected by the database instead of a scan-and-compare check.
 */
type Room struct {
	ID                 string     `gorm:"primaryKey;size:36"`
	PasscodeHash       string     `gorm:"size:64;not null;uniqueIndex:idx_rooms_passcode_hash"`
	Status             RoomStatus `gorm:"size:20;not null;default:WAITING"`
	DurationSeconds    int        `gorm:"not null;default:600"`
	GracePeriodSeconds int        `gorm:"not null;default:30"`
	MaxPlayers         int        `gorm:"not null;default:15"`
	HostPlayerID       string     `gorm:"size:36"`
	// StartedAt is set when the game enters IN_GAME and cleared again
	// when the host resets the room to the lobby.
	StartedAt *time.Time
	// LastResult is the frozen result of the most recent finished game,
	// cleared when the next game starts.
	LastResult datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time

	// Relationship with the players in the room
	Players []*Player `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
