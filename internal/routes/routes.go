package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/arnold/habits-api/internal/handlers"
	"github.com/arnold/habits-api/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)

	habits := protected.Group("/habits")
	habits.Get("/", handlers.GetHabits)
	habits.Post("/", handlers.CreateHabit)
	habits.Get("/:id", handlers.GetHabit)
	habits.Put("/:id", handlers.UpdateHabit)
	habits.Delete("/:id", handlers.DeleteHabit)

	habits.Post("/:id/completions", handlers.CompleteHabit)
	habits.Delete("/:id/completions/:date", handlers.UncompleteHabit)
	habits.Get("/:id/history", handlers.GetHistory)

	protected.Get("/achievements", handlers.GetAchievements)

	// WebSocket for live dashboard updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/progress", websocket.New(handlers.HandleWebSocket))
}
