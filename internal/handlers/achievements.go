package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arnold/habits-api/internal/database"
	"github.com/arnold/habits-api/internal/engine"
	"github.com/arnold/habits-api/internal/middleware"
	"github.com/arnold/habits-api/internal/schedule"
	"github.com/arnold/habits-api/internal/store"
)

// GetAchievements returns the user's perfect-day history and milestone
// progress. The count is derived from the stored dates, never tracked
// separately, so the two cannot disagree.
func GetAchievements(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	today, err := resolveToday(c.Query("today"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	s := store.New(database.DB)
	dates, err := s.PerfectDays(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load perfect days",
		})
	}

	milestone, err := engine.MilestoneFor(len(dates))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute milestone",
		})
	}

	todayStr := schedule.FormatDate(today)
	todayPerfect := false
	for _, d := range dates {
		if d == todayStr {
			todayPerfect = true
			break
		}
	}

	return c.JSON(fiber.Map{
		"perfectDays":     dates,
		"perfectDayCount": len(dates),
		"todayPerfect":    todayPerfect,
		"milestone":       milestone,
	})
}
