package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ShiftStateResponse is returned by GET /v1/workers/:id/shift and clock-in.
type ShiftStateResponse struct {
	WorkerID       string  `json:"worker_id"`
	NeedsClockIn   bool    `json:"needs_clock_in"`
	PunchID        *string `json:"punch_id,omitempty"`
	ClockIn        *string `json:"clock_in,omitempty"`
	ActiveShiftID  *string `json:"active_shift_id,omitempty"`
	ShiftStartTime *string `json:"shift_start_time,omitempty"`
}

type ClockOutResponse struct {
	Closed bool   `json:"closed"`
	Detail string `json:"detail"`
}

type BreakdownResponse struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type ShiftSummaryResponse struct {
	TotalSalesCount  int                          `json:"total_sales_count"`
	TotalAmount      decimal.Decimal              `json:"total_amount"`
	AverageTicket    decimal.Decimal              `json:"average_ticket"`
	PaymentBreakdown map[string]BreakdownResponse `json:"payment_breakdown"`
	BrandBreakdown   map[string]BreakdownResponse `json:"brand_breakdown"`
	StartTime        string                       `json:"start_time"`
	EndTime          string                       `json:"end_time"`
	Duration         string                       `json:"duration"`
}

type FinalizeResponse struct {
	ClosureID         string               `json:"closure_id"`
	ReceiptNumber     string               `json:"receipt_number"`
	Summary           ShiftSummaryResponse `json:"summary"`
	NotificationSent  bool                 `json:"notification_sent"`
	NotificationError string               `json:"notification_error,omitempty"`
	Detail            string               `json:"detail"`
}

type ShiftClosureResponse struct {
	ID             string          `json:"id"`
	ReceiptNumber  string          `json:"receipt_number"`
	ShiftStartTime string          `json:"shift_start_time"`
	ShiftEndTime   string          `json:"shift_end_time"`
	TotalSales     int             `json:"total_sales"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	PaymentSummary json.RawMessage `json:"payment_summary"`
	CreatedAt      string          `json:"created_at"`
}

// ClosureQuery is bound from GET /v1/workers/:id/shift-closures.
type ClosureQuery struct {
	Limit int `form:"limit,default=20" validate:"min=1,max=100"`
}
