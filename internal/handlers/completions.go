package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnold/habits-api/internal/database"
	"github.com/arnold/habits-api/internal/engine"
	"github.com/arnold/habits-api/internal/middleware"
	"github.com/arnold/habits-api/internal/models"
	"github.com/arnold/habits-api/internal/schedule"
	"github.com/arnold/habits-api/internal/store"
)

// CompleteHabit records a completion and runs the dependent recomputes. The
// ledger write, the streak recompute and the perfect-day update live in one
// transaction: a concurrent duplicate completion loses at the unique index
// and rolls back with nothing half-applied.
func CompleteHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	var req models.CompleteHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date",
		})
	}
	today, err := resolveToday(req.Today)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	dateStr := schedule.FormatDate(date)
	var habit *models.Habit
	var perfect, perfectChanged bool

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		s := store.New(tx)
		habit, err = s.HabitForUser(habitID, userID)
		if err != nil {
			return err
		}
		if err := s.RecordCompletion(habit.ID, dateStr, time.Now()); err != nil {
			return err
		}

		sched := schedule.MustParse(habit.TargetDays, habit.CustomDays)
		current, longest, err := engine.RecalculateStreak(habit, sched, s, today)
		if err != nil {
			return err
		}
		habit.CurrentStreak = current
		habit.LongestStreak = longest
		if err := s.SaveStreaks(habit.ID, current, longest); err != nil {
			return err
		}

		perfect, perfectChanged, err = engine.UpdatePerfectDay(s, userID, date)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Habit not found",
			})
		}
		if errors.Is(err, store.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Habit already completed for this date",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete habit",
		})
	}

	WS.Broadcast(userID, WSEvent{Type: EventHabitCompleted, Date: dateStr, Data: habit})
	WS.Broadcast(userID, WSEvent{Type: EventStreakUpdated, Data: fiber.Map{
		"habitId":       habit.ID,
		"currentStreak": habit.CurrentStreak,
		"longestStreak": habit.LongestStreak,
	}})
	if perfectChanged && perfect {
		WS.Broadcast(userID, WSEvent{Type: EventPerfectDay, Date: dateStr})
	}

	return c.JSON(fiber.Map{
		"habit":      habit,
		"perfectDay": perfect,
	})
}

// UncompleteHabit deletes a completion (no update path: complete days are
// delete-and-recreate only) and reconciles streaks and perfect-day state.
func UncompleteHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	date, err := schedule.ParseDate(c.Params("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date",
		})
	}
	today, err := resolveToday(c.Query("today"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	dateStr := schedule.FormatDate(date)
	var habit *models.Habit
	var perfectChanged bool

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		s := store.New(tx)
		habit, err = s.HabitForUser(habitID, userID)
		if err != nil {
			return err
		}
		if err := s.RemoveCompletion(habit.ID, dateStr); err != nil {
			return err
		}

		sched := schedule.MustParse(habit.TargetDays, habit.CustomDays)
		current, longest, err := engine.RecalculateStreak(habit, sched, s, today)
		if err != nil {
			return err
		}
		habit.CurrentStreak = current
		habit.LongestStreak = longest
		if err := s.SaveStreaks(habit.ID, current, longest); err != nil {
			return err
		}

		_, perfectChanged, err = engine.UpdatePerfectDay(s, userID, date)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Completion not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to uncomplete habit",
		})
	}

	WS.Broadcast(userID, WSEvent{Type: EventUncompleted, Date: dateStr, Data: habit})
	WS.Broadcast(userID, WSEvent{Type: EventStreakUpdated, Data: fiber.Map{
		"habitId":       habit.ID,
		"currentStreak": habit.CurrentStreak,
		"longestStreak": habit.LongestStreak,
	}})
	if perfectChanged {
		WS.Broadcast(userID, WSEvent{Type: EventPerfectDayLost, Date: dateStr})
	}

	return c.JSON(fiber.Map{
		"habit": habit,
	})
}

// GetHistory returns the per-day heatmap for a habit over a date range.
func GetHistory(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	today, err := resolveToday(c.Query("today"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	s := store.New(database.DB)
	habit, err := s.HabitForUser(habitID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Habit not found",
		})
	}

	start, err := schedule.ParseDate(habit.StartDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Invalid habit start date",
		})
	}

	// Defaults: the habit's whole lifetime up to today.
	from := start
	if v := c.Query("from"); v != "" {
		if from, err = schedule.ParseDate(v); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from date",
			})
		}
	}
	to := today
	if v := c.Query("to"); v != "" {
		if to, err = schedule.ParseDate(v); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to date",
			})
		}
	}
	if to.Before(from) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date range",
		})
	}

	completions, err := s.ListCompletions(habit.ID, schedule.FormatDate(from), schedule.FormatDate(to))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch completions",
		})
	}
	completed := make(map[string]bool, len(completions))
	for _, completion := range completions {
		completed[completion.Date] = true
	}

	sched := schedule.MustParse(habit.TargetDays, habit.CustomDays)
	entries := engine.BuildHistory(sched, start, completed, from, to, today)

	return c.JSON(fiber.Map{
		"habitId": habit.ID,
		"from":    schedule.FormatDate(from),
		"to":      schedule.FormatDate(to),
		"days":    entries,
	})
}
