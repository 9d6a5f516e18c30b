package service

import (
	"context"
	"testing"
	"time"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockFixture struct {
	worker   *model.User
	punches  *stubPunchRepo
	shifts   *stubShiftRepo
	relay    *stubRelay
	launcher *syncLauncher
	svc      ClockService
}

func newClockFixture(number string) *clockFixture {
	f := &clockFixture{
		worker:   newWorker(number),
		punches:  newStubPunchRepo(),
		shifts:   newStubShiftRepo(),
		relay:    &stubRelay{},
		launcher: &syncLauncher{},
	}
	f.svc = NewClockService(newStubUserRepo(f.worker), f.punches, f.shifts, newTestNotifier(f.relay), f.launcher, testLoc)
	return f
}

// ── ClockIn ───────────────────────────────────────────────────────────────────

func TestClockIn_CreatesPunchAndShift(t *testing.T) {
	f := newClockFixture("(11) 98765-4321")
	ctx := context.Background()

	state, err := f.svc.ClockIn(ctx, f.worker.ID, hm(8, 0))
	require.NoError(t, err)

	require.NotNil(t, state.Punch)
	require.NotNil(t, state.Shift)
	assert.True(t, state.Punch.ClockIn.Equal(hm(8, 0)))
	assert.True(t, state.Shift.StartTime.Equal(state.Punch.ClockIn))
	assert.Equal(t, 1, state.Shift.Version)
	assert.Equal(t, 1, f.punches.openCount(f.worker.ID))
	assert.Len(t, f.shifts.active, 1)

	require.Equal(t, []string{"clock_entry"}, f.launcher.tasks)
	require.NoError(t, f.launcher.errors[0])
	require.Len(t, f.relay.texts, 1)
	assert.Equal(t, "5511987654321", f.relay.texts[0].Number)
	assert.Contains(t, f.relay.texts[0].Text, "Entrada no Turno")
	assert.Contains(t, f.relay.texts[0].Text, "Maria Souza")
}

func TestClockIn_SecondClockInConflicts(t *testing.T) {
	f := newClockFixture("11987654321")
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, f.worker.ID, hm(8, 0))
	require.NoError(t, err)

	_, err = f.svc.ClockIn(ctx, f.worker.ID, hm(9, 0))
	assert.ErrorIs(t, err, ErrClockInConflict)
	assert.Equal(t, 1, f.punches.openCount(f.worker.ID))
	assert.Len(t, f.shifts.active, 1)
	assert.Len(t, f.launcher.tasks, 1, "no receipt for the rejected clock-in")
}

func TestClockIn_ReplacesStaleActiveShift(t *testing.T) {
	f := newClockFixture("11987654321")
	f.shifts.active = append(f.shifts.active, model.ActiveShift{ID: uuid.New(), UserID: f.worker.ID, StartTime: hm(-20, 0), Version: 3})

	state, err := f.svc.ClockIn(context.Background(), f.worker.ID, hm(8, 0))
	require.NoError(t, err)

	require.Len(t, f.shifts.active, 1)
	assert.Equal(t, state.Shift.ID, f.shifts.active[0].ID)
	assert.True(t, f.shifts.active[0].StartTime.Equal(hm(8, 0)))
}

func TestClockIn_UnknownWorker(t *testing.T) {
	f := newClockFixture("11987654321")
	_, err := f.svc.ClockIn(context.Background(), uuid.New(), hm(8, 0))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.punches.recs)
}

func TestClockIn_WithoutNumberSkipsReceipt(t *testing.T) {
	f := newClockFixture("")
	_, err := f.svc.ClockIn(context.Background(), f.worker.ID, hm(8, 0))
	require.NoError(t, err)
	assert.Empty(t, f.launcher.tasks)
	assert.Empty(t, f.relay.texts)
}

func TestClockIn_RelayFailureDoesNotUndoPunch(t *testing.T) {
	f := newClockFixture("11987654321")
	f.relay.textErr = errBoom

	state, err := f.svc.ClockIn(context.Background(), f.worker.ID, hm(8, 0))
	require.NoError(t, err)
	require.NotNil(t, state.Punch)
	require.Len(t, f.launcher.errors, 1)
	assert.ErrorIs(t, f.launcher.errors[0], ErrRelayTransport)
	assert.Equal(t, 1, f.punches.openCount(f.worker.ID))
}

// ── ClockOut ──────────────────────────────────────────────────────────────────

func TestClockOut_ClosesPunchAndSendsReceipt(t *testing.T) {
	f := newClockFixture("11987654321")
	ctx := context.Background()
	_, err := f.svc.ClockIn(ctx, f.worker.ID, hm(8, 0))
	require.NoError(t, err)

	closed, err := f.svc.ClockOut(ctx, f.worker.ID, hm(16, 30))
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, 0, f.punches.openCount(f.worker.ID))

	require.Equal(t, []string{"clock_entry", "clock_receipt"}, f.launcher.tasks)
	receipt := f.relay.texts[len(f.relay.texts)-1].Text
	assert.Contains(t, receipt, "15/03/2024 08:00")
	assert.Contains(t, receipt, "15/03/2024 16:30")
	assert.Contains(t, receipt, "8h 30min")
}

func TestClockOut_NoOpenPunchIsNoop(t *testing.T) {
	f := newClockFixture("11987654321")
	closed, err := f.svc.ClockOut(context.Background(), f.worker.ID, hm(16, 0))
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Empty(t, f.launcher.tasks)
}

// ── EnsureConsistentState ─────────────────────────────────────────────────────

func TestEnsureConsistentState_NoPunchClearsShifts(t *testing.T) {
	f := newClockFixture("11987654321")
	f.shifts.active = []model.ActiveShift{
		{ID: uuid.New(), UserID: f.worker.ID, StartTime: hm(7, 0), Version: 1},
		{ID: uuid.New(), UserID: f.worker.ID, StartTime: hm(6, 0), Version: 1},
	}

	state, err := f.svc.EnsureConsistentState(context.Background(), f.worker.ID)
	require.NoError(t, err)
	assert.True(t, state.NeedsClockIn)
	assert.Nil(t, state.Shift)
	assert.Empty(t, f.shifts.active)
}

func TestEnsureConsistentState_RebuildsShiftFromOpenPunch(t *testing.T) {
	f := newClockFixture("11987654321")
	punch := f.punches.open(f.worker.ID, hm(-3, 0)) // previous day, still open

	state, err := f.svc.EnsureConsistentState(context.Background(), f.worker.ID)
	require.NoError(t, err)

	assert.False(t, state.NeedsClockIn)
	require.NotNil(t, state.Shift)
	assert.True(t, state.Shift.StartTime.Equal(punch.ClockIn))
	assert.Len(t, f.shifts.active, 1)
}

func TestEnsureConsistentState_FixesDriftAndDuplicates(t *testing.T) {
	f := newClockFixture("11987654321")
	punch := f.punches.open(f.worker.ID, hm(8, 0))
	latest := model.ActiveShift{ID: uuid.New(), UserID: f.worker.ID, StartTime: hm(9, 0), Version: 2}
	older := model.ActiveShift{ID: uuid.New(), UserID: f.worker.ID, StartTime: hm(7, 0), Version: 1}
	f.shifts.active = []model.ActiveShift{older, latest}

	state, err := f.svc.EnsureConsistentState(context.Background(), f.worker.ID)
	require.NoError(t, err)

	require.Len(t, f.shifts.active, 1)
	assert.Equal(t, latest.ID, f.shifts.active[0].ID)
	assert.True(t, f.shifts.active[0].StartTime.Equal(punch.ClockIn))
	assert.Equal(t, 3, f.shifts.active[0].Version)
	assert.Equal(t, 3, state.Shift.Version)
}

func TestEnsureConsistentState_IsIdempotent(t *testing.T) {
	f := newClockFixture("11987654321")
	f.punches.open(f.worker.ID, hm(8, 0))
	ctx := context.Background()

	first, err := f.svc.EnsureConsistentState(ctx, f.worker.ID)
	require.NoError(t, err)
	second, err := f.svc.EnsureConsistentState(ctx, f.worker.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Shift.ID, second.Shift.ID)
	assert.Equal(t, first.Shift.Version, second.Shift.Version)
	assert.Len(t, f.shifts.active, 1)
}

func TestEnsureConsistentState_PropagatesRepositoryErrors(t *testing.T) {
	f := newClockFixture("11987654321")
	f.punches.findErr = errBoom
	_, err := f.svc.EnsureConsistentState(context.Background(), f.worker.ID)
	assert.ErrorIs(t, err, errBoom)
}

func TestClockIn_TruncatesToMicroseconds(t *testing.T) {
	f := newClockFixture("")
	raw := hm(8, 0).Add(1234 * time.Nanosecond)

	state, err := f.svc.ClockIn(context.Background(), f.worker.ID, raw)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Punch.ClockIn.Nanosecond()%1000)
}
