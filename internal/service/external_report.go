package service

import (
	"context"
	"time"

	"pdvinova/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ExternalReport is a shift report computed by a frontend and posted to the
// relay surface. PaymentSummary may use the legacy brand-qualified keys
// ("visa_debito", "cartao_credito"...).
type ExternalReport struct {
	Number         string
	WorkerName     string
	StartTime      time.Time
	EndTime        time.Time
	TotalSales     int
	TotalAmount    decimal.Decimal
	AverageTicket  decimal.Decimal
	PaymentSummary map[string]Breakdown
	BrandSummary   map[string]Breakdown
	ShiftDuration  string
	ReceiptNumber  string
	// PDFText, with a ReceiptNumber, asks for a PDF attachment.
	PDFText string
	WantPDF bool
}

// SplitPaymentSummary separates a legacy payment summary into per-method
// totals and the per-brand view keyed "<method>_<brand>". Unknown keys are
// kept as they are.
func SplitPaymentSummary(in map[string]Breakdown) (payments, brands map[string]Breakdown) {
	payments = map[string]Breakdown{}
	brands = map[string]Breakdown{}
	for key, v := range in {
		method, ok := model.ParsePaymentMethod(key)
		if !ok {
			merge(payments, key, v)
			continue
		}
		merge(payments, string(method), v)
		if method.IsCard() && key != string(method) && key != "cartao_"+string(method) {
			merge(brands, string(method)+"_"+model.NormalizeCardBrand(key), v)
		}
	}
	return payments, brands
}

func merge(m map[string]Breakdown, key string, v Breakdown) {
	b := m[key]
	b.Count += v.Count
	b.Amount = b.Amount.Add(v.Amount)
	m[key] = b
}

type ExternalReportSender struct {
	notifier      NotificationService
	render        PDFRenderer
	store         StoreInfo
	loc           *time.Location
	countryPrefix string
}

func NewExternalReportSender(notifier NotificationService, render PDFRenderer, cfg NotificationConfig) *ExternalReportSender {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ExternalReportSender{
		notifier:      notifier,
		render:        render,
		store:         cfg.Store,
		loc:           cfg.Location,
		countryPrefix: cfg.CountryPrefix,
	}
}

// Send formats and delivers r. A PDF failure degrades to text only.
func (s *ExternalReportSender) Send(ctx context.Context, r ExternalReport) error {
	if _, err := NormalizeNumber(r.Number, s.countryPrefix); err != nil {
		return err
	}

	payments, brands := SplitPaymentSummary(r.PaymentSummary)
	if len(r.BrandSummary) > 0 {
		brands = map[string]Breakdown{}
		for k, v := range r.BrandSummary {
			merge(brands, k, v)
		}
	}
	report := ShiftReport{
		Number:     r.Number,
		WorkerName: r.WorkerName,
		Summary: ShiftSummary{
			TotalSalesCount:  r.TotalSales,
			TotalAmount:      r.TotalAmount,
			AverageTicket:    r.AverageTicket,
			PaymentBreakdown: payments,
			BrandBreakdown:   brands,
			StartTime:        r.StartTime,
			EndTime:          r.EndTime,
		},
		ShiftDuration: r.ShiftDuration,
		ReceiptNumber: r.ReceiptNumber,
	}

	if r.WantPDF && r.ReceiptNumber != "" && s.render != nil {
		doc := ShiftReportDocument(report, s.store, s.loc)
		doc.Text = r.PDFText
		pdf, err := s.render(doc)
		if err != nil {
			log.Warn().Err(err).Str("receipt", r.ReceiptNumber).Msg("report: PDF render failed, sending text only")
		} else {
			report.PDF = pdf
		}
	}
	return s.notifier.SendShiftReport(ctx, report)
}
