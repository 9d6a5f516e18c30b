package service

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"pdvinova/internal/infra"
	"pdvinova/internal/model"
	"pdvinova/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shiftFixture struct {
	worker   *model.User
	punches  *stubPunchRepo
	shifts   *stubShiftRepo
	sales    *stubSaleRepo
	relay    *stubRelay
	emails   *stubEmailQueue
	rendered []infra.ReportDocument
	deps     ShiftDeps
	cfg      ShiftConfig
}

// newShiftFixture seeds an open shift started at 08:00; the closer runs at 16:00.
func newShiftFixture(number string) *shiftFixture {
	f := &shiftFixture{
		worker:  newWorker(number),
		punches: newStubPunchRepo(),
		shifts:  newStubShiftRepo(),
		sales:   newStubSaleRepo(),
		relay:   &stubRelay{},
		emails:  &stubEmailQueue{},
	}
	f.punches.open(f.worker.ID, hm(8, 0))
	f.shifts.active = []model.ActiveShift{{ID: uuid.New(), UserID: f.worker.ID, StartTime: hm(8, 0), Version: 1}}

	f.deps = ShiftDeps{
		Users:    newStubUserRepo(f.worker),
		Punches:  f.punches,
		Shifts:   f.shifts,
		Sales:    f.sales,
		Notifier: newTestNotifier(f.relay),
		Receipts: &seqReceipts{},
		Render: func(doc infra.ReportDocument) ([]byte, error) {
			f.rendered = append(f.rendered, doc)
			return []byte("%PDF-1.3 fake"), nil
		},
		Now: fixedClock(hm(16, 0)),
	}
	f.cfg = ShiftConfig{Store: testShop, Location: testLoc}
	return f
}

func (f *shiftFixture) service() ShiftService { return NewShiftService(f.deps, f.cfg) }

// ── Finalize ──────────────────────────────────────────────────────────────────

func TestFinalize_PersistsClosureAndNotifies(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.sales.add(f.worker.ID, hm(9, 0), "10.00", model.PaymentCash, "")
	f.sales.add(f.worker.ID, hm(12, 0), "20.00", model.PaymentCash, "")
	f.sales.add(f.worker.ID, hm(15, 0), "15.00", model.PaymentCash, "")

	res, err := f.service().Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)

	assert.True(t, res.NotificationSent)
	assert.Empty(t, res.NotificationError)
	assert.Equal(t, "8h 0min", res.Duration)
	assert.Equal(t, 3, res.Summary.TotalSalesCount)

	require.Len(t, f.shifts.closures, 1)
	c := f.shifts.closures[0]
	assert.Equal(t, "TURNO-1", c.ReceiptNumber)
	assert.Equal(t, 3, c.TotalSales)
	assert.True(t, c.TotalAmount.Equal(dec("45")))
	assert.True(t, c.AverageTicket.Equal(dec("15")))
	assert.True(t, c.ShiftStartTime.Equal(hm(8, 0)))
	assert.True(t, c.ShiftEndTime.Equal(hm(16, 0)))

	var payments map[string]Breakdown
	require.NoError(t, json.Unmarshal(c.PaymentSummary, &payments))
	assert.Equal(t, 3, payments["dinheiro"].Count)

	var report map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(c.ReportData, &report))
	assert.Contains(t, report, "summary")
	assert.JSONEq(t, `"Maria Souza"`, string(report["worker_name"]))

	assert.Empty(t, f.shifts.active, "active shift is consumed")
	assert.Equal(t, 0, f.punches.openCount(f.worker.ID), "open punch is closed at the shift end")

	require.Len(t, f.relay.texts, 1)
	assert.Contains(t, f.relay.texts[0].Text, "Comprovante de Fechamento de Turno")
	assert.Contains(t, f.relay.texts[0].Text, "R$ 45,00")
	require.Len(t, f.relay.media, 1)
	assert.Equal(t, "relatorio_turno_TURNO-1.pdf", f.relay.media[0].FileName)
	require.Len(t, f.rendered, 1)
	doc := f.rendered[0]
	assert.Empty(t, doc.Text, "emoji text stays out of the cp1252 PDF")
	require.NotEmpty(t, doc.Sections)
	assert.Equal(t, "Resumo de Vendas", doc.Sections[0].Title)
	assert.Contains(t, doc.Sections[0].Rows, infra.ReportRow{Label: "Total Vendido", Value: "R$ 45,00"})
}

func TestFinalize_ZeroSalesStillCloses(t *testing.T) {
	f := newShiftFixture("11987654321")

	res, err := f.service().Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Summary.TotalSalesCount)
	assert.True(t, res.Summary.AverageTicket.IsZero())
	require.Len(t, f.shifts.closures, 1)
	assert.True(t, f.shifts.closures[0].TotalAmount.IsZero())
	require.Len(t, f.relay.texts, 1)
	assert.Contains(t, f.relay.texts[0].Text, "Nenhuma venda registrada")
}

func TestFinalize_NoActiveShift(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.shifts.active = nil

	_, err := f.service().Finalize(context.Background(), f.worker.ID)
	assert.ErrorIs(t, err, ErrNoActiveShift)
	assert.Empty(t, f.shifts.closures)
	assert.Empty(t, f.relay.texts)
}

func TestFinalize_TwiceOnlyClosesOnce(t *testing.T) {
	f := newShiftFixture("11987654321")
	svc := f.service()

	_, err := svc.Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)
	_, err = svc.Finalize(context.Background(), f.worker.ID)
	assert.ErrorIs(t, err, ErrNoActiveShift)
	assert.Len(t, f.shifts.closures, 1)
}

func TestFinalize_LostClaimIsConflict(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.shifts.claimFails = true

	_, err := f.service().Finalize(context.Background(), f.worker.ID)
	assert.ErrorIs(t, err, ErrShiftConflict)
	assert.Empty(t, f.shifts.closures)
	assert.Empty(t, f.relay.texts)
}

func TestFinalize_RelayFailureKeepsClosure(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.relay.textErr = &infra.UpstreamError{Status: 500, Body: "instance offline"}

	res, err := f.service().Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)

	assert.False(t, res.NotificationSent)
	assert.Contains(t, res.NotificationError, "instance offline")
	require.Len(t, f.shifts.closures, 1)
	assert.Empty(t, f.shifts.active)
}

func TestFinalize_MissingNumber(t *testing.T) {
	f := newShiftFixture("")

	res, err := f.service().Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)

	assert.False(t, res.NotificationSent)
	assert.Equal(t, ErrMissingDestination.Error(), res.NotificationError)
	assert.Len(t, f.shifts.closures, 1)
	assert.Empty(t, f.relay.texts)
}

func TestFinalize_RenderFailureSendsTextOnly(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.deps.Render = func(infra.ReportDocument) ([]byte, error) { return nil, errBoom }

	res, err := f.service().Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)
	assert.True(t, res.NotificationSent)
	assert.Len(t, f.relay.texts, 1)
	assert.Empty(t, f.relay.media)
}

func TestFinalize_EnqueuesManagerCopy(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.deps.Emails = f.emails
	f.cfg.ManagerEmail = "gerente@loja.test"
	f.cfg.PDFStoragePath = t.TempDir()

	_, err := f.service().Finalize(context.Background(), f.worker.ID)
	require.NoError(t, err)

	require.Len(t, f.emails.payloads, 1)
	p, ok := f.emails.payloads[0].(worker.EmailJobPayload)
	require.True(t, ok)
	assert.Equal(t, "gerente@loja.test", p.ToEmail)
	assert.Contains(t, p.Subject, "TURNO-1")
	require.NotEmpty(t, p.PDFPath)
	_, statErr := os.Stat(p.PDFPath)
	assert.NoError(t, statErr)
}

func TestFinalize_UnknownWorker(t *testing.T) {
	f := newShiftFixture("11987654321")
	_, err := f.service().Finalize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

// ── Preview / ListClosures ────────────────────────────────────────────────────

func TestPreview_DoesNotWrite(t *testing.T) {
	f := newShiftFixture("11987654321")
	f.sales.add(f.worker.ID, hm(10, 0), "12.50", model.PaymentPix, "")

	p, err := f.service().Preview(context.Background(), f.worker.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Summary.TotalSalesCount)
	assert.Equal(t, "8h 0min", p.Duration)
	assert.Len(t, f.shifts.active, 1)
	assert.Empty(t, f.shifts.closures)
	assert.Empty(t, f.relay.texts)
}

func TestListClosures_ClampsLimit(t *testing.T) {
	f := newShiftFixture("11987654321")
	svc := f.service()
	ctx := context.Background()

	for _, tc := range []struct{ in, want int }{{0, 20}, {-1, 20}, {500, 20}, {5, 5}, {100, 100}} {
		_, err := svc.ListClosures(ctx, f.worker.ID, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, f.shifts.lastLimit, "limit %d", tc.in)
	}
}
