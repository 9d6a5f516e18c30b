package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ActiveShift points at the start of the worker's open shift. StartTime must
// match the ClockIn of the open TimeClockRecord. Version guards finalization:
// the closer deletes the row only if the version it read is still current.
type ActiveShift struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StartTime time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time
}

func (ActiveShift) TableName() string { return "active_shifts" }

// ShiftClosure is written exactly once per finalized shift and never updated.
// PaymentSummary holds the payment breakdown; ReportData the full summary.
type ShiftClosure struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ActiveShiftID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ReceiptNumber  string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	ShiftStartTime time.Time       `gorm:"not null"`
	ShiftEndTime   time.Time       `gorm:"not null"`
	TotalSales     int             `gorm:"not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AverageTicket  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentSummary datatypes.JSON  `gorm:"type:jsonb;not null"`
	ReportData     datatypes.JSON  `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time
}

func (ShiftClosure) TableName() string { return "shift_closures" }
