package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"bookstack.io/internal/api"
	"bookstack.io/internal/auth"
	"bookstack.io/internal/config"
	"bookstack.io/internal/event"
	"bookstack.io/internal/infra"
	"bookstack.io/internal/service"
	"bookstack.io/internal/workers"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()

	// 2. Infrastructure
	pg, err := infra.NewPostgresClient(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Redis backs the token denylist; the service runs without it.
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = infra.NewRedisClient(cfg.Redis)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	} else {
		log.Println("Redis disabled, logout falls back to client-side token disposal")
	}

	// 3. Websocket hub and event bus
	hub := infra.NewHub()
	go hub.Start()

	bus := event.NewBus(256)
	infra.RegisterEventBridge(bus, hub)

	// 4. Services
	tokens := auth.NewTokenManager(cfg.JWT, rdb)
	userService := service.NewUserService(pg.DB, cfg.Library.BorrowingLimit)
	bookService := service.NewBookService(pg.DB, bus)
	notificationService := service.NewNotificationService(pg.DB, bus)
	borrowingService := service.NewBorrowingService(pg.DB, notificationService, cfg.Library)

	// 5. Background workers
	if cfg.Library.ReminderEnabled {
		worker := workers.NewReminderWorker(pg.DB, notificationService, cfg.Library)
		worker.Start(context.Background())
	}

	// 6. HTTP server and routes
	app := api.NewServer(cfg)
	router := api.NewRouter(app, cfg, api.Deps{
		DB:            pg.DB,
		Tokens:        tokens,
		Hub:           hub,
		Users:         userService,
		Books:         bookService,
		Borrowings:    borrowingService,
		Notifications: notificationService,
	})
	router.RegisterRoutes()

	// 7. Run
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(cfg.Server.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
