package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inukaki/dorokei-app-back/config"
	"github.com/inukaki/dorokei-app-back/middleware"
	"github.com/inukaki/dorokei-app-back/routes"
	"github.com/inukaki/dorokei-app-back/services/auth"
	"github.com/inukaki/dorokei-app-back/services/game"
	"github.com/inukaki/dorokei-app-back/services/redis"
	"github.com/inukaki/dorokei-app-back/services/socket_io"
	"github.com/inukaki/dorokei-app-back/services/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}

	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.ConnectRedis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	var cache game.SnapshotCache
	if redisClient != nil {
		cache = redisClient
		defer redis.CloseRedis(redisClient)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	authService := auth.New(secret, 24*time.Hour)

	roomStore := store.NewGormStore(gormDB)

	r := gin.Default()
	middleware.SetUpMiddleware(r)

	socketService := socket_io.NewSocketService()
	orchestrator := game.NewOrchestrator(roomStore, authService, socketService.Broadcaster(), cache)
	socketService.Start(r, orchestrator, authService, roomStore)

	routes.SetupRoutes(r, orchestrator, authService, roomStore)

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-signalC
		socketService.Close()
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
