package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/arnold/habits-api/internal/models"
)

// fakeProgressStore implements ProgressStore in memory.
type fakeProgressStore struct {
	habits  []models.Habit
	done    map[uuid.UUID]map[string]bool
	perfect map[string]bool
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{
		done:    make(map[uuid.UUID]map[string]bool),
		perfect: make(map[string]bool),
	}
}

func (f *fakeProgressStore) addHabit(targetDays, customDays, start string) models.Habit {
	h := models.Habit{
		ID:         uuid.New(),
		TargetDays: targetDays,
		CustomDays: customDays,
		StartDate:  start,
	}
	f.habits = append(f.habits, h)
	f.done[h.ID] = make(map[string]bool)
	return h
}

func (f *fakeProgressStore) HabitsForUser(userID uuid.UUID) ([]models.Habit, error) {
	return f.habits, nil
}

func (f *fakeProgressStore) IsCompleted(habitID uuid.UUID, date string) (bool, error) {
	return f.done[habitID][date], nil
}

func (f *fakeProgressStore) HasPerfectDay(userID uuid.UUID, date string) (bool, error) {
	return f.perfect[date], nil
}

func (f *fakeProgressStore) AddPerfectDay(userID uuid.UUID, date string) error {
	f.perfect[date] = true
	return nil
}

func (f *fakeProgressStore) RemovePerfectDay(userID uuid.UUID, date string) error {
	delete(f.perfect, date)
	return nil
}

func TestZeroDueHabitsIsNeverPerfect(t *testing.T) {
	s := newFakeProgressStore()
	userID := uuid.New()
	day := mustDate(t, "2025-05-03") // Saturday

	// No habits at all.
	perfect, changed, err := UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if perfect || changed {
		t.Fatalf("perfect=%v changed=%v with no habits, want false/false", perfect, changed)
	}

	// A weekdays habit is not due on Saturday: vacuous completion earns nothing.
	s.addHabit("weekdays", "", "2025-05-01")
	perfect, _, err = UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if perfect {
		t.Fatalf("Saturday perfect with only a weekdays habit")
	}
}

func TestAllDueHabitsCompleteMakesPerfectDay(t *testing.T) {
	s := newFakeProgressStore()
	userID := uuid.New()
	day := mustDate(t, "2025-05-05")

	h1 := s.addHabit("every_day", "", "2025-05-01")
	h2 := s.addHabit("every_day", "", "2025-05-01")

	// Only one of two due habits completed.
	s.done[h1.ID]["2025-05-05"] = true
	perfect, changed, err := UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if perfect || changed {
		t.Fatalf("perfect=%v changed=%v with one habit incomplete", perfect, changed)
	}

	// Completing the second flips the date into the set.
	s.done[h2.ID]["2025-05-05"] = true
	perfect, changed, err = UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if !perfect || !changed {
		t.Fatalf("perfect=%v changed=%v after completing both, want true/true", perfect, changed)
	}
	if !s.perfect["2025-05-05"] {
		t.Fatalf("perfect-day set missing 2025-05-05")
	}

	// Uncompleting one removes it again.
	delete(s.done[h2.ID], "2025-05-05")
	perfect, changed, err = UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if perfect || !changed {
		t.Fatalf("perfect=%v changed=%v after uncompleting, want false/true", perfect, changed)
	}
	if s.perfect["2025-05-05"] {
		t.Fatalf("perfect-day set still contains 2025-05-05")
	}
}

func TestUpdatePerfectDayIsIdempotent(t *testing.T) {
	s := newFakeProgressStore()
	userID := uuid.New()
	day := mustDate(t, "2025-05-05")

	h := s.addHabit("every_day", "", "2025-05-01")
	s.done[h.ID]["2025-05-05"] = true

	perfect, changed, err := UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if !perfect || !changed {
		t.Fatalf("first call: perfect=%v changed=%v, want true/true", perfect, changed)
	}

	perfect, changed, err = UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if !perfect || changed {
		t.Fatalf("second call: perfect=%v changed=%v, want true/false", perfect, changed)
	}
}

func TestOnlyDueHabitsCount(t *testing.T) {
	s := newFakeProgressStore()
	userID := uuid.New()
	day := mustDate(t, "2025-05-05") // Monday

	due := s.addHabit("custom", "monday", "2025-05-01")
	s.addHabit("custom", "tuesday", "2025-05-01") // not due Monday, never completed

	s.done[due.ID]["2025-05-05"] = true
	perfect, _, err := UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if !perfect {
		t.Fatalf("Monday not perfect; the Tuesday habit should not count")
	}
}

func TestHabitNotStartedYetDoesNotBlockPerfectDay(t *testing.T) {
	s := newFakeProgressStore()
	userID := uuid.New()
	day := mustDate(t, "2025-05-05")

	due := s.addHabit("every_day", "", "2025-05-01")
	s.addHabit("every_day", "", "2025-06-01") // starts next month

	s.done[due.ID]["2025-05-05"] = true
	perfect, _, err := UpdatePerfectDay(s, userID, day)
	if err != nil {
		t.Fatalf("UpdatePerfectDay: %v", err)
	}
	if !perfect {
		t.Fatalf("future-start habit blocked the perfect day")
	}
}
