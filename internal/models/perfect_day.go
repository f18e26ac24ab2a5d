package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PerfectDay marks a date on which every habit due for the user was
// completed. The row set IS the state: the count shown to the user is always
// COUNT(*) over this table, so it can never drift from the dates themselves.
type PerfectDay struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_perfect_days_user_date"`
	Date      string    `json:"date" gorm:"not null;uniqueIndex:idx_perfect_days_user_date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt"`
}

func (p *PerfectDay) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
