package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	WorkerID string `form:"worker_id"        validate:"omitempty,uuid"`
	Date     string `form:"date"             validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD; empty = every day
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int            `json:"total"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SaleItemRequest names a catalog product by ProductID, or carries a free
// line with Name and UnitPrice.
type SaleItemRequest struct {
	ProductID   *string          `json:"product_id"   validate:"omitempty,uuid"`
	ProductCode *string          `json:"product_code" validate:"omitempty,max=60"`
	Name        string           `json:"name"         validate:"omitempty,max=200"`
	Quantity    int              `json:"quantity"     validate:"required,min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type RegisterSaleRequest struct {
	WorkerID       string            `json:"worker_id"       validate:"required,uuid"`
	PaymentMethod  string            `json:"payment_method"  validate:"required"`
	CardBrand      *string           `json:"card_brand"      validate:"omitempty,max=40"`
	AmountReceived *decimal.Decimal  `json:"amount_received"`
	Items          []SaleItemRequest `json:"items"           validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID   *string         `json:"product_id,omitempty"`
	ProductCode *string         `json:"product_code,omitempty"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID             string             `json:"id"`
	WorkerID       string             `json:"worker_id"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	CardBrand      *string            `json:"card_brand,omitempty"`
	AmountReceived *decimal.Decimal   `json:"amount_received,omitempty"`
	Change         *decimal.Decimal   `json:"change,omitempty"`
	Items          []SaleItemResponse `json:"items"`
	CreatedAt      string             `json:"created_at"`
}
