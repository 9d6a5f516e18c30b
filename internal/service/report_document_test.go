package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftReportDocument_NoSales(t *testing.T) {
	r := ShiftReport{WorkerName: "Ana", ReceiptNumber: "TURNO-1", Summary: Summarize(newWorker("").ID, hm(8, 0), hm(12, 0), nil)}
	doc := ShiftReportDocument(r, testShop, testLoc)

	assert.Equal(t, "TURNO-1", doc.ReceiptNumber)
	assert.Equal(t, testShop.Name, doc.StoreName)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Nenhuma venda registrada neste turno.", doc.Sections[0].Note)
	assert.Len(t, doc.Header, 3, "no duration row without a duration")
}

func TestShiftReportDocument_BrandsAreSeparateSections(t *testing.T) {
	r := ShiftReport{
		WorkerName:    "Ana",
		ShiftDuration: "4h 0min",
		Summary: ShiftSummary{
			TotalSalesCount: 3,
			TotalAmount:     dec("60"),
			AverageTicket:   dec("20"),
			PaymentBreakdown: map[string]Breakdown{
				"debito":  {Count: 1, Amount: dec("10")},
				"credito": {Count: 2, Amount: dec("50")},
			},
			BrandBreakdown: map[string]Breakdown{
				"debito_elo":      {Count: 1, Amount: dec("10")},
				"credito_visa":    {Count: 1, Amount: dec("20")},
				"credito_maestro": {Count: 1, Amount: dec("30")},
				"voucher_alelo":   {Count: 1, Amount: dec("1")},
			},
			StartTime: hm(8, 0),
			EndTime:   hm(12, 0),
		},
	}
	doc := ShiftReportDocument(r, testShop, testLoc)

	require.Len(t, doc.Sections, 5)
	titles := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Resumo de Vendas", "Formas de Pagamento", "Débito por Bandeira", "Crédito por Bandeira", "Outras Bandeiras"}, titles)

	credit := doc.Sections[3]
	require.NotNil(t, credit.Subtotal)
	assert.Equal(t, "R$ 50,00", credit.Subtotal.Value)
	assert.Equal(t, "Já incluído nos totais acima.", credit.Note)
	assert.Nil(t, doc.Sections[4].Subtotal)
	assert.Equal(t, "Cartão de Débito (1x)", doc.Sections[1].Rows[0].Label)
	assert.Equal(t, "Duração", doc.Header[3].Label)
}
