package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arnold/habits-api/internal/models"
	"github.com/arnold/habits-api/internal/schedule"
)

// CompletionChecker is the slice of the ledger the streak calculator needs.
type CompletionChecker interface {
	IsCompleted(habitID uuid.UUID, date string) (bool, error)
}

// RecalculateStreak derives the habit's current and longest streak as of
// today. It is recomputable from scratch and idempotent: calling it twice
// with no intervening mutation yields the same result, which is why it runs
// after every completion, every uncompletion, and in the startup sweep.
//
// The algorithm deliberately trusts the stored streak for everything before
// the most recent prior due day instead of rescanning the whole habit
// lifetime: cost is O(days since last due day), and in exchange it relies on
// the stored value having been kept consistent after every mutation. Known
// sharp edge: uncompleting a past day and recomputing within the same
// calendar day can carry the stale stored value forward. See the drift test
// in streak_test.go; do not "fix" this by rescanning.
func RecalculateStreak(habit *models.Habit, sched schedule.Schedule, ledger CompletionChecker, today time.Time) (int, int, error) {
	start, err := schedule.ParseDate(habit.StartDate)
	if err != nil {
		return 0, 0, fmt.Errorf("habit %s: %w", habit.ID, err)
	}

	// Phase 1: most recent due day strictly before today.
	var lastDue time.Time
	foundDue := false
	for d := today.AddDate(0, 0, -1); !d.Before(start); d = d.AddDate(0, 0, -1) {
		if sched.IsDue(start, d) {
			lastDue = d
			foundDue = true
			break
		}
	}

	// Phase 2: if that day was completed the chain is unbroken, so the
	// stored streak is trusted as the base. A missed due day (or no due
	// day at all yet) resets the base to zero.
	base := 0
	if foundDue {
		done, err := ledger.IsCompleted(habit.ID, schedule.FormatDate(lastDue))
		if err != nil {
			return 0, 0, err
		}
		if done {
			base = habit.CurrentStreak
		}
	}

	// Phase 3: today itself. Due and completed extends the chain; due and
	// not completed breaks it outright; not due leaves it untouched.
	current := base
	if sched.IsDue(start, today) {
		done, err := ledger.IsCompleted(habit.ID, schedule.FormatDate(today))
		if err != nil {
			return 0, 0, err
		}
		if done {
			current = base + 1
		} else {
			current = 0
		}
	}

	// Longest only ever ratchets up; an uncompletion never takes back a
	// record already earned.
	longest := habit.LongestStreak
	if current > longest {
		longest = current
	}
	return current, longest, nil
}
