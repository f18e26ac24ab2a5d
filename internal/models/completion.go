package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Completion is a single completed day for a habit. The (habit_id, date) pair
// is unique: streak math counts days, not events, so a second completion for
// the same day must be rejected rather than inserted.
type Completion struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	HabitID     uuid.UUID `json:"habitId" gorm:"type:uuid;not null;uniqueIndex:idx_completions_habit_date"`
	Date        string    `json:"date" gorm:"not null;uniqueIndex:idx_completions_habit_date"` // YYYY-MM-DD
	CompletedAt time.Time `json:"completedAt"`                                                 // wall clock, display only
}

func (cp *Completion) BeforeCreate(tx *gorm.DB) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	return nil
}

type CompleteHabitRequest struct {
	Date  string `json:"date" validate:"required"`
	Today string `json:"today"`
}
