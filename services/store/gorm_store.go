package store

import (
	"errors"
	"strings"

	models "github.com/inukaki/dorokei-app-back/models/postgres"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormStore implements RoomStore on top of the PostgreSQL GORM instance.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) CreateRoom(room *models.Room) error {
	if err := s.DB.Create(room).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePasscode
		}
		return err
	}
	return nil
}

func (s *GormStore) FindRoomByID(id string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.Where("id = ?", id).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *GormStore) FindRoomByPasscodeHash(hash string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.Where("passcode_hash = ?", hash).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *GormStore) ListRooms() ([]models.Room, error) {
	var rooms []models.Room
	if err := s.DB.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *GormStore) UpdateRoom(id string, fields map[string]interface{}) error {
	result := s.DB.Model(&models.Room{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteRoom(id string) error {
	// Select(clause.Associations) is not needed: the OnDelete:CASCADE
	// constraint on players removes the roster at the database level.
	result := s.DB.Where("id = ?", id).Delete(&models.Room{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreatePlayer(player *models.Player) error {
	return s.DB.Create(player).Error
}

func (s *GormStore) FindPlayerByID(id string) (*models.Player, error) {
	var player models.Player
	if err := s.DB.Where("id = ?", id).First(&player).Error; err != nil {
		return nil, translate(err)
	}
	return &player, nil
}

func (s *GormStore) FindPlayersByRoom(roomID string) ([]models.Player, error) {
	var players []models.Player
	if err := s.DB.Where("room_id = ?", roomID).Order("created_at").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *GormStore) CountPlayersInRoom(roomID string) (int64, error) {
	var count int64
	if err := s.DB.Model(&models.Player{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *GormStore) UpdatePlayer(id string, fields map[string]interface{}) error {
	result := s.DB.Model(&models.Player{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePlayer(id string) error {
	result := s.DB.Where("id = ?", id).Delete(&models.Player{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ResetCaptures(roomID string) error {
	return s.DB.Model(&models.Player{}).
		Where("room_id = ? AND role = ?", roomID, models.RoleThief).
		Update("is_captured", false).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
