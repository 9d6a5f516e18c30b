package service

import (
	"strconv"
	"strings"
	"time"

	"pdvinova/internal/infra"

	"github.com/shopspring/decimal"
)

// ShiftReportDocument lays out the printable version of a shift report.
// Card brands get their own sections and never feed the totals.
func ShiftReportDocument(r ShiftReport, store StoreInfo, loc *time.Location) infra.ReportDocument {
	s := r.Summary
	doc := infra.ReportDocument{
		Title:         "Fechamento de Turno",
		StoreName:     store.Name,
		ReceiptNumber: r.ReceiptNumber,
		Header: []infra.ReportRow{
			{Label: "Funcionário", Value: r.WorkerName},
			{Label: "Data", Value: s.EndTime.In(loc).Format(dateLayout)},
			{Label: "Turno", Value: s.StartTime.In(loc).Format(shortTimeLayout) + " às " + s.EndTime.In(loc).Format(shortTimeLayout)},
		},
		Footer: []string{"CNPJ: " + store.CNPJ, "Registro INPI: " + store.INPI, "Sistema PDV InovaPro"},
	}
	if r.ShiftDuration != "" {
		doc.Header = append(doc.Header, infra.ReportRow{Label: "Duração", Value: r.ShiftDuration})
	}

	totals := infra.ReportSection{Title: "Resumo de Vendas"}
	if s.TotalSalesCount == 0 {
		totals.Note = "Nenhuma venda registrada neste turno."
		totals.Rows = []infra.ReportRow{{Label: "Total de Vendas", Value: BRL(decimal.Zero)}}
		doc.Sections = append(doc.Sections, totals)
		return doc
	}
	totals.Rows = []infra.ReportRow{
		{Label: "Total Vendido", Value: BRL(s.TotalAmount)},
		{Label: "Quantidade de Vendas", Value: strconv.Itoa(s.TotalSalesCount)},
		{Label: "Ticket Médio", Value: BRL(s.AverageTicket)},
	}
	doc.Sections = append(doc.Sections, totals)

	methods := infra.ReportSection{Title: "Formas de Pagamento"}
	for _, k := range sortedKeys(s.PaymentBreakdown) {
		methods.Rows = append(methods.Rows, breakdownRow(PaymentLabel(k), s.PaymentBreakdown[k]))
	}
	doc.Sections = append(doc.Sections, methods)

	doc.Sections = append(doc.Sections, brandSections(s.BrandBreakdown)...)
	return doc
}

func brandSections(brands map[string]Breakdown) []infra.ReportSection {
	debit := infra.ReportSection{Title: "Débito por Bandeira", Note: "Já incluído nos totais acima."}
	credit := infra.ReportSection{Title: "Crédito por Bandeira", Note: "Já incluído nos totais acima."}
	other := infra.ReportSection{Title: "Outras Bandeiras", Note: "Já incluído nos totais acima."}
	debitTotal, creditTotal := decimal.Zero, decimal.Zero

	for _, k := range sortedKeys(brands) {
		v := brands[k]
		switch {
		case strings.HasPrefix(k, debitPrefix):
			debit.Rows = append(debit.Rows, breakdownRow(BrandLabel(k), v))
			debitTotal = debitTotal.Add(v.Amount)
		case strings.HasPrefix(k, creditPrefix):
			credit.Rows = append(credit.Rows, breakdownRow(BrandLabel(k), v))
			creditTotal = creditTotal.Add(v.Amount)
		default:
			other.Rows = append(other.Rows, breakdownRow(BrandLabel(k), v))
		}
	}

	var out []infra.ReportSection
	if len(debit.Rows) > 0 {
		debit.Subtotal = &infra.ReportRow{Label: "Subtotal Débito", Value: BRL(debitTotal)}
		out = append(out, debit)
	}
	if len(credit.Rows) > 0 {
		credit.Subtotal = &infra.ReportRow{Label: "Subtotal Crédito", Value: BRL(creditTotal)}
		out = append(out, credit)
	}
	if len(other.Rows) > 0 {
		out = append(out, other)
	}
	return out
}

func breakdownRow(label string, v Breakdown) infra.ReportRow {
	return infra.ReportRow{Label: label + " (" + strconv.Itoa(v.Count) + "x)", Value: BRL(v.Amount)}
}
