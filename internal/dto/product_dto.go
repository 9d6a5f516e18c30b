package dto

import "github.com/shopspring/decimal"

// ImportResponse is returned by POST /v1/products/import.
type ImportResponse struct {
	Parsed     int    `json:"parsed"`
	Filtered   int    `json:"filtered"`
	Invalid    int    `json:"invalid"`
	Duplicates int    `json:"duplicates"`
	Imported   int    `json:"imported"`
	Failed     int    `json:"failed"`
	Detail     string `json:"detail"`
}

// ProductLookupResponse is returned by the barcode scanner lookup.
type ProductLookupResponse struct {
	ID       string          `json:"id"`
	Barcode  string          `json:"codigo_barras"`
	Name     string          `json:"nome"`
	Price    decimal.Decimal `json:"preco"`
	StockQty int             `json:"quantidade_estoque"`
	Unit     string          `json:"unidade"`
	Category *string         `json:"categoria,omitempty"`
}
