package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the closed set stored in sales.forma_pagamento.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "dinheiro"
	PaymentDebit  PaymentMethod = "debito"
	PaymentCredit PaymentMethod = "credito"
	PaymentPix    PaymentMethod = "pix"
	PaymentOther  PaymentMethod = "outro"
)

// PaymentMethods lists every accepted value, in report order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentDebit, PaymentCredit, PaymentPix, PaymentOther}

// ParsePaymentMethod normalizes user input. The legacy cartao_* values and the
// brand-qualified card sub-methods (visa_credito, elo_debito...) map to the
// plain card method.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "dinheiro", "cash":
		return PaymentCash, true
	case "debito", "cartao_debito":
		return PaymentDebit, true
	case "credito", "cartao_credito":
		return PaymentCredit, true
	case "pix":
		return PaymentPix, true
	case "outro":
		return PaymentOther, true
	}
	switch {
	case strings.HasSuffix(s, "_debito"):
		return PaymentDebit, true
	case strings.HasSuffix(s, "_credito"), s == "amex_hipercard_credsystem":
		return PaymentCredit, true
	}
	return "", false
}

// IsCard reports whether the method requires a card brand.
func (m PaymentMethod) IsCard() bool { return m == PaymentDebit || m == PaymentCredit }

// NormalizeCardBrand strips the method suffix of a card sub-method, so that
// "visa_credito" and "VISA" both become "visa".
func NormalizeCardBrand(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "_debito")
	s = strings.TrimSuffix(s, "_credito")
	return s
}

// Sale is a completed checkout. Created once; the only later change is a
// cancellation, which deletes the sale and its items.
type Sale struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_sales_user_created"`
	Total          decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  PaymentMethod    `gorm:"column:forma_pagamento;type:varchar(20);not null"`
	CardBrand      *string          `gorm:"column:bandeira;type:varchar(40)"`
	AmountReceived *decimal.Decimal `gorm:"column:valor_recebido;type:decimal(12,2)"`
	Change         *decimal.Decimal `gorm:"column:troco;type:decimal(12,2)"`
	CreatedAt      time.Time        `gorm:"index:idx_sales_user_created"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem is owned by its Sale.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid"`
	ProductCode *string         `gorm:"column:codigo_produto"`
	ProductName string          `gorm:"column:nome_produto;not null"`
	Quantity    int             `gorm:"column:quantidade;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:preco_unitario;type:decimal(12,2);not null"`
	CreatedAt   time.Time
}

func (SaleItem) TableName() string { return "sale_items" }

// Subtotal is quantity times unit price.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
