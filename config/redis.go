package config

import (
	"log"
	"os"

	"github.com/inukaki/dorokei-app-back/services/redis"
)

// ConnectRedis connects to the snapshot cache. Returns nil when no
// REDIS_URL is configured; the orchestrator runs without the cache.
func ConnectRedis() (*redis.RedisClient, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Println("REDIS_URL not set, running without snapshot cache")
		return nil, nil
	}
	redisClient, err := redis.InitRedis(redisURL, 0)
	if err != nil {
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}
