package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerRole is a closed two-variant type. POLICE chase, THIEF evade.
// The wire values are kept for compatibility with existing clients.
type PlayerRole string

const (
	RolePolice PlayerRole = "POLICE"
	RoleThief  PlayerRole = "THIEF"
)

/*
 * 'Player' is one member of a room's roster. IsCaptured is only
 * meaningful for thieves; IsConnected mirrors the realtime transport
 * state and survives transient disconnects (the row is only removed
 * when the player leaves or the room is disbanded).
 */
type Player struct {
	ID          string     `gorm:"primaryKey;size:36"`
	PlayerName  string     `gorm:"size:100;not null"`
	Role        PlayerRole `gorm:"size:10;not null"`
	IsCaptured  bool       `gorm:"not null;default:false"`
	IsConnected bool       `gorm:"not null;default:true"`
	RoomID      string     `gorm:"size:36;not null;index:idx_players_room"`
	CreatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time
}

func (p *Player) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
