package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a store worker. WhatsAppNumber is the destination of clock receipts
// and shift reports; nil means the worker receives no notifications.
// Role: "admin" | "funcionario"
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `gorm:"not null"`
	Email          *string
	WhatsAppNumber *string `gorm:"column:whatsapp_number"`
	Role           string  `gorm:"type:varchar(20);not null;default:'funcionario'"`
	Cargo          *string
	Blocked        bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string { return "users" }
