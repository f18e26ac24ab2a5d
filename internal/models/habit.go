package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Habit struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Name          string         `json:"name" gorm:"not null"`
	TargetDays    string         `json:"targetDays" gorm:"not null"` // every_day, weekdays, custom
	CustomDays    string         `json:"customDays"`                 // comma-separated weekday names, custom only
	StartDate     string         `json:"startDate" gorm:"not null"`  // YYYY-MM-DD
	CurrentStreak int            `json:"currentStreak" gorm:"default:0"`
	LongestStreak int            `json:"longestStreak" gorm:"default:0"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	Completions   []Completion   `json:"completions,omitempty" gorm:"foreignKey:HabitID"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Habit DTOs
type CreateHabitRequest struct {
	Name       string `json:"name" validate:"required"`
	TargetDays string `json:"targetDays" validate:"required"`
	CustomDays string `json:"customDays"`
	StartDate  string `json:"startDate" validate:"required"`
}

type UpdateHabitRequest struct {
	Name       *string `json:"name"`
	TargetDays *string `json:"targetDays"`
	CustomDays *string `json:"customDays"`
	StartDate  *string `json:"startDate"`
}
