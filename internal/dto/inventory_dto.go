package dto

// RecordCountRequest is the body of POST /v1/inventory-counts.
type RecordCountRequest struct {
	ProductID  string  `json:"product_id" validate:"required,uuid"`
	CountedQty *int    `json:"quantidade_contada" validate:"required,min=0"`
	UserName   string  `json:"usuario" validate:"required,max=120"`
	Category   *string `json:"categoria" validate:"omitempty,max=80"`
}

// EditCountRequest is the body of PUT /v1/inventory-counts/:id.
type EditCountRequest struct {
	CountedQty *int    `json:"quantidade_contada" validate:"required,min=0"`
	Category   *string `json:"categoria" validate:"omitempty,max=80"`
}

// InventoryFilter is bound from the listing and report query strings.
type InventoryFilter struct {
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	UserName  string `form:"usuario"`
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
}

type InventoryCountResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Barcode     *string `json:"codigo_barras"`
	Name        string  `json:"nome"`
	Description *string `json:"descricao"`
	Category    string  `json:"categoria"`
	StockQty    int     `json:"quantidade_estoque"`
	CountedQty  int     `json:"quantidade_contada"`
	Difference  int     `json:"diferenca"`
	UserName    string  `json:"usuario"`
	Closed      bool    `json:"contagem_fechada"`
	CreatedAt   string  `json:"created_at"`
}

type InventoryListResponse struct {
	Data     []InventoryCountResponse `json:"data"`
	Total    int                      `json:"total"`
	Positive int                      `json:"diferencas_positivas"`
	Negative int                      `json:"diferencas_negativas"`
}
