package service

import (
	"fmt"
	"time"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Breakdown accumulates count and amount for one payment key.
type Breakdown struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ShiftSummary aggregates the sales of one shift.
//
// BrandBreakdown is a finer view of card sales keyed by "<method>_<brand>".
// Its amounts are already counted in PaymentBreakdown: the two maps overlap
// and must never be added together.
type ShiftSummary struct {
	TotalSalesCount  int                  `json:"total_sales_count"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	AverageTicket    decimal.Decimal      `json:"average_ticket"`
	PaymentBreakdown map[string]Breakdown `json:"payment_breakdown"`
	BrandBreakdown   map[string]Breakdown `json:"brand_breakdown"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
}

// Summarize filters sales to the worker and the inclusive [start, end] window
// and aggregates them. No sales is a valid, zeroed summary.
func Summarize(workerID uuid.UUID, start, end time.Time, sales []model.Sale) ShiftSummary {
	sum := ShiftSummary{
		TotalAmount:      decimal.Zero,
		AverageTicket:    decimal.Zero,
		PaymentBreakdown: map[string]Breakdown{},
		BrandBreakdown:   map[string]Breakdown{},
		StartTime:        start,
		EndTime:          end,
	}

	for _, s := range sales {
		if s.UserID != workerID || s.CreatedAt.Before(start) || s.CreatedAt.After(end) {
			continue
		}
		sum.TotalSalesCount++
		sum.TotalAmount = sum.TotalAmount.Add(s.Total)

		method := string(s.PaymentMethod)
		if method == "" {
			method = string(model.PaymentOther)
		}
		addTo(sum.PaymentBreakdown, method, s.Total)

		if s.CardBrand != nil && *s.CardBrand != "" {
			addTo(sum.BrandBreakdown, method+"_"+*s.CardBrand, s.Total)
		}
	}

	if sum.TotalSalesCount > 0 {
		sum.AverageTicket = sum.TotalAmount.Div(decimal.NewFromInt(int64(sum.TotalSalesCount)))
	}
	return sum
}

func addTo(m map[string]Breakdown, key string, amount decimal.Decimal) {
	b := m[key]
	b.Count++
	b.Amount = b.Amount.Add(amount)
	m[key] = b
}

// FormatDuration renders a span as "Xh Ymin".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%dh %dmin", total/60, total%60)
}
