package engine

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/arnold/habits-api/internal/schedule"
	"github.com/arnold/habits-api/internal/store"
)

// SweepStreaks recomputes every habit's streaks, repairing any drift left by
// crashes or skipped recomputes. It runs on application start and may
// interleave with live requests: each habit gets its own transaction and the
// recompute is idempotent, so no global lock is needed.
func SweepStreaks(db *gorm.DB, today time.Time) {
	habits, err := store.New(db).AllHabits()
	if err != nil {
		log.Printf("streak sweep: list habits: %v", err)
		return
	}

	repaired := 0
	for _, h := range habits {
		habitID := h.ID
		err := db.Transaction(func(tx *gorm.DB) error {
			s := store.New(tx)
			habit, err := s.HabitForUser(habitID, h.UserID)
			if err != nil {
				return err
			}
			sched := schedule.MustParse(habit.TargetDays, habit.CustomDays)
			current, longest, err := RecalculateStreak(habit, sched, s, today)
			if err != nil {
				return err
			}
			if current == habit.CurrentStreak && longest == habit.LongestStreak {
				return nil
			}
			repaired++
			return s.SaveStreaks(habit.ID, current, longest)
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			// ErrNotFound means the habit was deleted mid-sweep; nothing to repair.
			log.Printf("streak sweep: habit %s: %v", habitID, err)
		}
	}
	log.Printf("streak sweep: %d habit(s) checked, %d repaired", len(habits), repaired)
}
