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

// resolveToday turns the caller-supplied local date into a time.Time. Due
// dates always come from the client's calendar, never the server clock; the
// fallback to server time only covers clients that omit the param.
func resolveToday(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return schedule.ParseDate(value)
}

// HabitView is a habit plus the per-request bits the dashboard needs.
type HabitView struct {
	models.Habit
	DueToday       bool `json:"dueToday"`
	CompletedToday bool `json:"completedToday"`
}

func GetHabits(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	today, err := resolveToday(c.Query("today"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	s := store.New(database.DB)
	habits, err := s.HabitsForUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch habits",
		})
	}

	views := make([]HabitView, len(habits))
	for i, h := range habits {
		view := HabitView{Habit: h}
		if start, err := schedule.ParseDate(h.StartDate); err == nil {
			sched := schedule.MustParse(h.TargetDays, h.CustomDays)
			view.DueToday = sched.IsDue(start, today)
		}
		done, err := s.IsCompleted(h.ID, schedule.FormatDate(today))
		if err == nil {
			view.CompletedToday = done
		}
		views[i] = view
	}

	return c.JSON(views)
}

func CreateHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	if _, err := schedule.Parse(req.TargetDays, req.CustomDays); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule",
		})
	}
	if _, err := schedule.ParseDate(req.StartDate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start date",
		})
	}

	today, err := resolveToday(c.Query("today"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	habit := models.Habit{
		UserID:     userID,
		Name:       req.Name,
		TargetDays: req.TargetDays,
		CustomDays: req.CustomDays,
		StartDate:  req.StartDate,
	}

	// A new habit changes today's due set, so the perfect-day state for
	// today has to be reconciled in the same transaction.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		s := store.New(tx)
		if err := s.CreateHabit(&habit); err != nil {
			return err
		}
		_, _, err := engine.UpdatePerfectDay(s, userID, today)
		return err
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create habit",
		})
	}

	WS.Broadcast(userID, WSEvent{Type: EventHabitCreated, Data: habit})
	return c.Status(fiber.StatusCreated).JSON(habit)
}

func GetHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	habit, err := store.New(database.DB).HabitForUser(habitID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Habit not found",
		})
	}

	return c.JSON(habit)
}

func UpdateHabit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	var req models.UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	today, err := resolveToday(c.Query("today"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid today date",
		})
	}

	var habit *models.Habit
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		s := store.New(tx)
		habit, err = s.HabitForUser(habitID, userID)
		if err != nil {
			return err
		}

		rescheduled := false
		if req.Name != nil && *req.Name != "" {
			habit.Name = *req.Name
		}
		if req.TargetDays != nil {
			customDays := habit.CustomDays
			if req.CustomDays != nil {
				customDays = *req.CustomDays
			}
			if _, err := schedule.Parse(*req.TargetDays, customDays); err != nil {
				return errInvalidSchedule
			}
			habit.TargetDays = *req.TargetDays
			habit.CustomDays = customDays
			rescheduled = true
		} else if req.CustomDays != nil {
			if _, err := schedule.Parse(habit.TargetDays, *req.CustomDays); err != nil {
				return errInvalidSchedule
			}
			habit.CustomDays = *req.CustomDays
			rescheduled = true
		}
		if req.StartDate != nil {
			if _, err := schedule.ParseDate(*req.StartDate); err != nil {
				return errInvalidSchedule
			}
			habit.StartDate = *req.StartDate
			rescheduled = true
		}

		// Rescheduling or restarting redefines which past days were due,
		// so the streaks and today's perfect-day status are stale.
		if rescheduled {
			sched := schedule.MustParse(habit.TargetDays, habit.CustomDays)
			current, longest, err := engine.RecalculateStreak(habit, sched, s, today)
			if err != nil {
				return err
			}
			habit.CurrentStreak = current
			habit.LongestStreak = longest
		}

		if err := s.SaveHabit(habit); err != nil {
			return err
		}
		if rescheduled {
			if _, _, err := engine.UpdatePerfectDay(s, userID, today); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Habit not found",
			})
		}
		if errors.Is(err, errInvalidSchedule) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid schedule",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update habit",
		})
	}

	WS.Broadcast(userID, WSEvent{Type: EventHabitUpdated, Data: habit})
	return c.JSON(habit)
}

var errInvalidSchedule = errors.New("invalid schedule")

func DeleteHabit(c *fiber.Ctx) error {
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

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		s := store.New(tx)
		habit, err := s.HabitForUser(habitID, userID)
		if err != nil {
			return err
		}
		if err := s.DeleteHabit(habit); err != nil {
			return err
		}
		// Removing a habit can retroactively make today perfect (one
		// fewer due habit) or imperfect (the deleted habit was the only
		// one due).
		_, _, err = engine.UpdatePerfectDay(s, userID, today)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Habit not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete habit",
		})
	}

	WS.Broadcast(userID, WSEvent{Type: EventHabitDeleted, Data: fiber.Map{"id": habitID}})
	return c.JSON(fiber.Map{"deleted": true})
}
