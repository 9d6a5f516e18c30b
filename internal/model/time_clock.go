package model

import (
	"time"

	"github.com/google/uuid"
)

// TimeClockRecord is one punch of the time-clock ledger. ClockOut == nil marks
// the worker's open punch; the schema allows at most one per worker.
type TimeClockRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClockIn   time.Time  `gorm:"column:entrada;not null"`
	ClockOut  *time.Time `gorm:"column:saida"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TimeClockRecord) TableName() string { return "ponto" }

// IsOpen reports whether the punch has not been closed yet.
func (r TimeClockRecord) IsOpen() bool { return r.ClockOut == nil }
