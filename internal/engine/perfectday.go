package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/arnold/habits-api/internal/models"
	"github.com/arnold/habits-api/internal/schedule"
)

// ProgressStore is what the perfect-day aggregator needs from persistence.
// *store.Store satisfies it; tests use an in-memory fake.
type ProgressStore interface {
	HabitsForUser(userID uuid.UUID) ([]models.Habit, error)
	IsCompleted(habitID uuid.UUID, date string) (bool, error)
	HasPerfectDay(userID uuid.UUID, date string) (bool, error)
	AddPerfectDay(userID uuid.UUID, date string) error
	RemovePerfectDay(userID uuid.UUID, date string) error
}

// UpdatePerfectDay reconciles the user's perfect-day set for one date: the
// date is in the set iff at least one habit was due and every due habit has
// a completion. It runs after every completion, uncompletion, habit creation
// and habit deletion, since each of those can change the due set for the
// date. Both the insert and the remove are idempotent.
//
// A date with zero due habits is never perfect, even though "all due habits
// completed" is vacuously true; an empty schedule earns nothing.
func UpdatePerfectDay(s ProgressStore, userID uuid.UUID, date time.Time) (perfect bool, changed bool, err error) {
	habits, err := s.HabitsForUser(userID)
	if err != nil {
		return false, false, err
	}

	dateStr := schedule.FormatDate(date)
	dueCount := 0
	allComplete := true
	for i := range habits {
		h := &habits[i]
		start, err := schedule.ParseDate(h.StartDate)
		if err != nil {
			continue
		}
		sched := schedule.MustParse(h.TargetDays, h.CustomDays)
		if !sched.IsDue(start, date) {
			continue
		}
		dueCount++
		done, err := s.IsCompleted(h.ID, dateStr)
		if err != nil {
			return false, false, err
		}
		if !done {
			allComplete = false
			break
		}
	}

	perfect = dueCount > 0 && allComplete

	had, err := s.HasPerfectDay(userID, dateStr)
	if err != nil {
		return false, false, err
	}
	switch {
	case perfect && !had:
		if err := s.AddPerfectDay(userID, dateStr); err != nil {
			return false, false, err
		}
		changed = true
	case !perfect && had:
		if err := s.RemovePerfectDay(userID, dateStr); err != nil {
			return false, false, err
		}
		changed = true
	}
	return perfect, changed, nil
}
