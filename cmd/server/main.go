package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/arnold/habits-api/internal/config"
	"github.com/arnold/habits-api/internal/database"
	"github.com/arnold/habits-api/internal/engine"
	"github.com/arnold/habits-api/internal/routes"
)

func main() {
	// .env is optional; production sets real env vars
	_ = godotenv.Load()

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Repair streak drift left by crashes or missed recomputes. Runs
	// alongside live traffic; each habit is recomputed in its own
	// transaction. Uses the server's calendar date — per-request
	// operations keep using the caller-supplied one.
	go func() {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		engine.SweepStreaks(database.DB, today)
	}()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Setup(app)

	log.Printf("Starting habits API on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
