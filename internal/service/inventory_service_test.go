package service

import (
	"context"
	"testing"
	"time"

	"pdvinova/internal/dto"
	"pdvinova/internal/infra"
	"pdvinova/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inventoryFixture struct {
	counts   *stubInventoryRepo
	products *stubProductRepo
	beer     model.Product
	chips    model.Product
	now      time.Time
	docs     []infra.ReportDocument
	svc      InventoryService
}

func newInventoryFixture() *inventoryFixture {
	beer := model.Product{ID: uuid.New(), Barcode: strPtr("7891149100101"), Name: "Cerveja Lata 350ml", StockQty: 24, Category: strPtr("Cervejas")}
	chips := model.Product{ID: uuid.New(), Name: "Salgadinho 100g", StockQty: 5}
	f := &inventoryFixture{counts: newStubInventoryRepo(), products: newStubProductRepo(beer, chips), beer: beer, chips: chips, now: hm(9, 0)}
	render := func(doc infra.ReportDocument) ([]byte, error) {
		f.docs = append(f.docs, doc)
		return []byte("%PDF"), nil
	}
	f.svc = NewInventoryService(f.counts, f.products, render, testShop, testLoc, func() time.Time { return f.now })
	return f
}

func (f *inventoryFixture) record(t *testing.T, p model.Product, qty int, user string) *dto.InventoryCountResponse {
	t.Helper()
	resp, err := f.svc.Record(context.Background(), dto.RecordCountRequest{ProductID: p.ID.String(), CountedQty: &qty, UserName: user})
	require.NoError(t, err)
	return resp
}

func TestInventoryRecord_SnapshotsProductAndDifference(t *testing.T) {
	f := newInventoryFixture()

	beer := f.record(t, f.beer, 20, "Maria")
	assert.Equal(t, 24, beer.StockQty)
	assert.Equal(t, 20, beer.CountedQty)
	assert.Equal(t, -4, beer.Difference)
	assert.Equal(t, "Cervejas", beer.Category)
	assert.Equal(t, "7891149100101", *beer.Barcode)
	assert.False(t, beer.Closed)

	chips := f.record(t, f.chips, 7, "  ")
	assert.Equal(t, 2, chips.Difference)
	assert.Equal(t, "Diversos", chips.Category)
	assert.Equal(t, "Desconhecido", chips.UserName)
}

func TestInventoryRecord_ReplacesOpenCount(t *testing.T) {
	f := newInventoryFixture()

	first := f.record(t, f.beer, 20, "Maria")
	second := f.record(t, f.beer, 22, "João")

	require.Len(t, f.counts.counts, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 22, f.counts.counts[0].CountedQty)
	assert.Equal(t, "João", f.counts.counts[0].UserName)
}

func TestInventoryRecord_RecountIsDatedNow(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	first := f.record(t, f.beer, 20, "Maria")

	f.now = hm(9, 0).AddDate(0, 0, 1)
	second := f.record(t, f.beer, 22, "Maria")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2024-03-16T09:00:00-03:00", second.CreatedAt)

	stored, err := f.svc.Latest(ctx, f.beer.ID)
	require.NoError(t, err)
	assert.Equal(t, second.CreatedAt, stored.CreatedAt, "response and stored row agree")

	day1, err := f.svc.List(ctx, dto.InventoryFilter{From: "2024-03-15", To: "2024-03-15"})
	require.NoError(t, err)
	assert.Zero(t, day1.Total)
	day2, err := f.svc.List(ctx, dto.InventoryFilter{From: "2024-03-16", To: "2024-03-16"})
	require.NoError(t, err)
	assert.Equal(t, 1, day2.Total)
}

func TestInventoryRecord_Rejects(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	qty := 3

	_, err := f.svc.Record(ctx, dto.RecordCountRequest{ProductID: "x", CountedQty: &qty})
	assert.Contains(t, fieldsOf(t, err), "product_id")

	_, err = f.svc.Record(ctx, dto.RecordCountRequest{ProductID: f.beer.ID.String()})
	assert.Contains(t, fieldsOf(t, err), "quantidade_contada")

	_, err = f.svc.Record(ctx, dto.RecordCountRequest{ProductID: uuid.NewString(), CountedQty: &qty})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.counts.counts)
}

func TestInventoryEdit(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	c := f.record(t, f.beer, 20, "Maria")
	id := uuid.MustParse(c.ID)

	qty := 30
	resp, err := f.svc.Edit(ctx, id, dto.EditCountRequest{CountedQty: &qty, Category: strPtr("Cervejas - Latas")})
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Difference)
	assert.Equal(t, "Cervejas - Latas", f.counts.counts[0].Category)

	_, err = f.svc.Edit(ctx, uuid.New(), dto.EditCountRequest{CountedQty: &qty})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventoryClose_FreezesCount(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	c := f.record(t, f.beer, 20, "Maria")
	id := uuid.MustParse(c.ID)

	require.NoError(t, f.counts.ApplySale(ctx, nil, f.beer.ID, 2))
	assert.Equal(t, 18, f.counts.counts[0].CountedQty)
	assert.Equal(t, 22, f.counts.counts[0].StockQty)
	assert.Equal(t, -4, f.counts.counts[0].CountedQty-f.counts.counts[0].StockQty, "sales keep the difference")

	require.NoError(t, f.svc.Close(ctx, id))
	require.NoError(t, f.svc.Close(ctx, id), "closing twice is fine")

	require.NoError(t, f.counts.ApplySale(ctx, nil, f.beer.ID, 5))
	assert.Equal(t, 18, f.counts.counts[0].CountedQty)

	qty := 1
	_, err := f.svc.Edit(ctx, id, dto.EditCountRequest{CountedQty: &qty})
	assert.ErrorIs(t, err, ErrCountClosed)

	// A new count starts a fresh row.
	f.record(t, f.beer, 10, "Maria")
	assert.Len(t, f.counts.counts, 2)
}

func TestInventoryLatest(t *testing.T) {
	f := newInventoryFixture()
	_, err := f.svc.Latest(context.Background(), f.beer.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	f.record(t, f.beer, 20, "Maria")
	c, err := f.svc.Latest(context.Background(), f.beer.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, c.CountedQty)
}

func TestInventoryList_FiltersAndTally(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	f.record(t, f.beer, 20, "Maria")
	f.record(t, f.chips, 7, "João")

	all, err := f.svc.List(ctx, dto.InventoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, 1, all.Positive)
	assert.Equal(t, 1, all.Negative)
	assert.Equal(t, "Cerveja Lata 350ml", all.Data[0].Name, "ordered by category")

	mine, err := f.svc.List(ctx, dto.InventoryFilter{UserName: "João"})
	require.NoError(t, err)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "Salgadinho 100g", mine.Data[0].Name)

	sameDay, err := f.svc.List(ctx, dto.InventoryFilter{From: "2024-03-15", To: "2024-03-15"})
	require.NoError(t, err)
	assert.Equal(t, 2, sameDay.Total, "to includes the whole day")

	later, err := f.svc.List(ctx, dto.InventoryFilter{From: "2024-03-16"})
	require.NoError(t, err)
	assert.Zero(t, later.Total)

	_, err = f.svc.List(ctx, dto.InventoryFilter{From: "15/03/2024"})
	assert.Contains(t, fieldsOf(t, err), "from")
}

func TestInventoryReportPDF(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()

	_, err := f.svc.ReportPDF(ctx, dto.InventoryFilter{})
	assert.ErrorIs(t, err, ErrNoInventoryData)

	f.record(t, f.beer, 20, "Maria")
	f.record(t, f.chips, 7, "Maria")
	pdf, err := f.svc.ReportPDF(ctx, dto.InventoryFilter{UserName: "Maria", From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)

	require.Len(t, f.docs, 1)
	doc := f.docs[0]
	assert.Equal(t, "Relatório de Inventário", doc.Title)
	assert.Contains(t, doc.Header, infra.ReportRow{Label: "Usuário", Value: "Maria"})
	assert.Contains(t, doc.Header, infra.ReportRow{Label: "Período", Value: "01/03/2024 a 31/03/2024"})

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, infra.ReportRow{Label: "Produtos contados", Value: "2"}, doc.Sections[0].Rows[0])
	assert.Equal(t, "Cervejas", doc.Sections[1].Title)
	assert.Equal(t, infra.ReportRow{Label: "Cerveja Lata 350ml", Value: "20 / 24 (-4)"}, doc.Sections[1].Rows[0])
	assert.Equal(t, "Diversos", doc.Sections[2].Title)
	assert.Equal(t, "7 / 5 (+2)", doc.Sections[2].Rows[0].Value)
}
