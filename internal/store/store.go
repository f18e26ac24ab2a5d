package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnold/habits-api/internal/models"
)

var (
	// ErrNotFound is returned when a habit, user or completion does not
	// exist (or is not visible to the caller).
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would violate a uniqueness
	// constraint, e.g. a second completion for the same habit and day.
	ErrConflict = errors.New("already exists")
)

// Store wraps a gorm handle. Handlers construct one per request, either on
// the shared connection or on a transaction, so every method below runs on
// whatever atomicity scope the caller chose.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ── Users ────────────────────────────────────────────────────────────────

func (s *Store) UserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &user, nil
}

func (s *Store) UserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	var existing models.User
	if err := s.db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return ErrConflict
	}
	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ── Habits ───────────────────────────────────────────────────────────────

// HabitForUser loads a habit only if it belongs to userID. A habit owned by
// someone else is indistinguishable from a missing one.
func (s *Store) HabitForUser(habitID, userID uuid.UUID) (*models.Habit, error) {
	var habit models.Habit
	if err := s.db.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("habit for user: %w", err)
	}
	return &habit, nil
}

func (s *Store) HabitsForUser(userID uuid.UUID) ([]models.Habit, error) {
	var habits []models.Habit
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("habits for user: %w", err)
	}
	return habits, nil
}

func (s *Store) AllHabits() ([]models.Habit, error) {
	var habits []models.Habit
	if err := s.db.Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("all habits: %w", err)
	}
	return habits, nil
}

func (s *Store) CreateHabit(habit *models.Habit) error {
	if err := s.db.Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (s *Store) SaveHabit(habit *models.Habit) error {
	if err := s.db.Save(habit).Error; err != nil {
		return fmt.Errorf("save habit: %w", err)
	}
	return nil
}

// SaveStreaks persists only the streak columns, so the opportunistic startup
// sweep cannot clobber a concurrent rename or reschedule.
func (s *Store) SaveStreaks(habitID uuid.UUID, current, longest int) error {
	err := s.db.Model(&models.Habit{}).Where("id = ?", habitID).Updates(map[string]interface{}{
		"current_streak": current,
		"longest_streak": longest,
	}).Error
	if err != nil {
		return fmt.Errorf("save streaks: %w", err)
	}
	return nil
}

// DeleteHabit soft-deletes the habit and hard-deletes its completions. The
// ledger must not keep shadow rows: a recreated habit with the same name
// starts from a clean slate.
func (s *Store) DeleteHabit(habit *models.Habit) error {
	if err := s.db.Where("habit_id = ?", habit.ID).Delete(&models.Completion{}).Error; err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	if err := s.db.Delete(habit).Error; err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// ── Completion ledger ────────────────────────────────────────────────────

// RecordCompletion inserts the completion for (habitID, date). Returns
// ErrConflict if one already exists; it never overwrites. The composite
// unique index is the final arbiter between concurrent writers — the
// pre-check only gives the common case a friendlier path.
func (s *Store) RecordCompletion(habitID uuid.UUID, date string, completedAt time.Time) error {
	var existing models.Completion
	if err := s.db.Where("habit_id = ? AND date = ?", habitID, date).First(&existing).Error; err == nil {
		return ErrConflict
	}
	completion := models.Completion{
		HabitID:     habitID,
		Date:        date,
		CompletedAt: completedAt,
	}
	if err := s.db.Create(&completion).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// RemoveCompletion deletes the completion for (habitID, date). Returns
// ErrNotFound if none exists.
func (s *Store) RemoveCompletion(habitID uuid.UUID, date string) error {
	res := s.db.Where("habit_id = ? AND date = ?", habitID, date).Delete(&models.Completion{})
	if res.Error != nil {
		return fmt.Errorf("remove completion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) IsCompleted(habitID uuid.UUID, date string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Completion{}).
		Where("habit_id = ? AND date = ?", habitID, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("is completed: %w", err)
	}
	return count > 0, nil
}

// ListCompletions returns the habit's completions within [from, to]
// inclusive, ordered by date. Empty bounds mean unbounded on that side.
func (s *Store) ListCompletions(habitID uuid.UUID, from, to string) ([]models.Completion, error) {
	q := s.db.Where("habit_id = ?", habitID)
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	var completions []models.Completion
	if err := q.Order("date ASC").Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}

// ── Perfect days ─────────────────────────────────────────────────────────

func (s *Store) HasPerfectDay(userID uuid.UUID, date string) (bool, error) {
	var count int64
	err := s.db.Model(&models.PerfectDay{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("has perfect day: %w", err)
	}
	return count > 0, nil
}

// AddPerfectDay inserts the date into the user's perfect-day set.
// Idempotent: inserting a date that is already present is a no-op.
func (s *Store) AddPerfectDay(userID uuid.UUID, date string) error {
	has, err := s.HasPerfectDay(userID, date)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	pd := models.PerfectDay{UserID: userID, Date: date}
	if err := s.db.Create(&pd).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("add perfect day: %w", err)
	}
	return nil
}

// RemovePerfectDay removes the date from the user's perfect-day set.
// Idempotent: removing an absent date is a no-op.
func (s *Store) RemovePerfectDay(userID uuid.UUID, date string) error {
	err := s.db.Where("user_id = ? AND date = ?", userID, date).Delete(&models.PerfectDay{}).Error
	if err != nil {
		return fmt.Errorf("remove perfect day: %w", err)
	}
	return nil
}

func (s *Store) PerfectDays(userID uuid.UUID) ([]string, error) {
	var dates []string
	err := s.db.Model(&models.PerfectDay{}).
		Where("user_id = ?", userID).
		Order("date ASC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("perfect days: %w", err)
	}
	return dates, nil
}

func (s *Store) PerfectDayCount(userID uuid.UUID) (int, error) {
	var count int64
	err := s.db.Model(&models.PerfectDay{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("perfect day count: %w", err)
	}
	return int(count), nil
}

// isUniqueViolation matches duplicate-key failures across the sqlite and
// postgres drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
