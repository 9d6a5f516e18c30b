package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Barcode is unique when present; imported rows
// without a barcode are kept and identified by name.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode     *string         `gorm:"column:codigo_barras;uniqueIndex"`
	Name        string          `gorm:"column:nome;index;not null"`
	Price       decimal.Decimal `gorm:"column:preco;type:decimal(10,2);not null"`
	StockQty    int             `gorm:"column:quantidade_estoque;not null;default:0"`
	Unit        string          `gorm:"column:unidade;not null;default:'UN'"`
	Description *string         `gorm:"column:descricao"`
	Category    *string         `gorm:"column:categoria"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string { return "products" }

// Stock movement types stored in stock_movements.tipo.
const (
	MovementIn     = "entrada"
	MovementOut    = "saida"
	MovementAdjust = "ajuste"
	MovementWaste  = "desperdicio"
)

// StockMovement records every stock change. Quantity is signed: negative for
// outgoing stock.
type StockMovement struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `gorm:"type:uuid"`
	Type      string     `gorm:"column:tipo;type:varchar(20);not null"`
	Quantity  int        `gorm:"column:quantidade;not null"`
	RefID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }
