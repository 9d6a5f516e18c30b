package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryCount is a shelf count of one product. Product fields are copied at
// count time so the report survives catalog edits. A product has at most one
// open count; while it stays open, sales move CountedQty and StockQty together.
// Closed counts are frozen.
type InventoryCount struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Barcode     *string   `gorm:"column:codigo_barras"`
	Name        string    `gorm:"column:nome;not null"`
	Description *string   `gorm:"column:descricao"`
	Category    string    `gorm:"column:categoria;not null;default:'Diversos'"`
	StockQty    int       `gorm:"column:quantidade_estoque;not null"`
	CountedQty  int       `gorm:"column:quantidade_contada;not null"`
	Difference  int       `gorm:"column:diferenca;not null"`
	UserName    string    `gorm:"column:usuario;not null;index"`
	Closed      bool      `gorm:"column:contagem_fechada;not null;default:false"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (InventoryCount) TableName() string { return "contagens_inventario" }
