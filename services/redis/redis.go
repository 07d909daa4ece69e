package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/inukaki/dorokei-app-back/services/game"

	"github.com/redis/go-redis/v9"
)

// Snapshots expire on their own so a crashed process never leaves
// stale room state behind forever.
const snapshotTTL = 24 * time.Hour

// RedisClient caches the latest committed room snapshot. The database
// stays the source of truth; a cache miss just falls back to it.
type RedisClient struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisClient creates a new Redis client instance from an address
// or a full redis:// URL.
func NewRedisClient(addr string, db int) *RedisClient {
	var client *redis.Client
	if opt, err := redis.ParseURL(addr); err == nil {
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		})
	}
	return &RedisClient{
		Client: client,
		Ctx:    context.Background(),
	}
}

func snapshotKey(roomID string) string {
	return fmt.Sprintf("room:%s:snapshot", roomID)
}

func (rc *RedisClient) SaveRoomSnapshot(roomID string, snapshot game.StatusSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for room %s: %v", roomID, err)
	}
	if err := rc.Client.Set(rc.Ctx, snapshotKey(roomID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot for room %s: %v", roomID, err)
	}
	return nil
}

// GetRoomSnapshot returns (nil, nil) on a cache miss.
func (rc *RedisClient) GetRoomSnapshot(roomID string) (*game.StatusSnapshot, error) {
	data, err := rc.Client.Get(rc.Ctx, snapshotKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for room %s: %v", roomID, err)
	}
	var snapshot game.StatusSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Printf("[REDIS-ERROR] Corrupt snapshot for room %s, dropping: %v", roomID, err)
		rc.Client.Del(rc.Ctx, snapshotKey(roomID))
		return nil, nil
	}
	return &snapshot, nil
}

func (rc *RedisClient) DeleteRoomSnapshot(roomID string) error {
	if err := rc.Client.Del(rc.Ctx, snapshotKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot for room %s: %v", roomID, err)
	}
	return nil
}
