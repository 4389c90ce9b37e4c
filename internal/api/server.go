package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"bookstack.io/internal/config"
)

// NewServer builds the Fiber app with the base middleware and liveness
// probes. Routes are mounted by the Router.
func NewServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.Server.AppName,
	})

	app.Use(logger.New())
	app.Use(cors.New())

	health := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "ok",
			"message":   "Service is healthy",
			"timestamp": time.Now().UTC(),
		})
	}
	app.Get("/health", health)
	app.Get("/api/health", health)

	return app
}
