package service

import (
	"context"
	"errors"
	"time"

	"pdvinova/internal/model"
	"pdvinova/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ShiftState is the reconciled view of a worker's shift.
type ShiftState struct {
	NeedsClockIn bool
	Punch        *model.TimeClockRecord
	Shift        *model.ActiveShift
}

// Launcher starts fire-and-forget work detached from the caller.
type Launcher interface {
	Go(task string, payload interface{}, fn func(ctx context.Context) error)
}

type ClockService interface {
	// EnsureConsistentState makes active_shifts agree with the open punch.
	EnsureConsistentState(ctx context.Context, workerID uuid.UUID) (*ShiftState, error)
	ClockIn(ctx context.Context, workerID uuid.UUID, at time.Time) (*ShiftState, error)
	// ClockOut closes the open punch. Returns false, nil when there is none.
	ClockOut(ctx context.Context, workerID uuid.UUID, at time.Time) (bool, error)
}

type clockService struct {
	users    repository.UserRepository
	punches  repository.TimeClockRepository
	shifts   repository.ShiftRepository
	notifier NotificationService
	launcher Launcher
	loc      *time.Location
}

func NewClockService(
	users repository.UserRepository,
	punches repository.TimeClockRepository,
	shifts repository.ShiftRepository,
	notifier NotificationService,
	launcher Launcher,
	loc *time.Location,
) ClockService {
	if loc == nil {
		loc = time.UTC
	}
	return &clockService{users: users, punches: punches, shifts: shifts, notifier: notifier, launcher: launcher, loc: loc}
}

const receiptLayout = "02/01/2006 15:04"

// ── EnsureConsistentState ─────────────────────────────────────────────────────
// The open punch is authoritative. A punch from a previous day still counts.

func (s *clockService) EnsureConsistentState(ctx context.Context, workerID uuid.UUID) (*ShiftState, error) {
	state := &ShiftState{}
	err := runTx(ctx, s.punches.DB(), func(tx *gorm.DB) error {
		punch, err := s.punches.FindOpen(ctx, tx, workerID)
		if errors.Is(err, repository.ErrNotFound) {
			n, err := s.shifts.DeleteActiveForUser(ctx, tx, workerID)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info().Str("worker_id", workerID.String()).Int64("deleted", n).Msg("clock: removed stale active shifts")
			}
			state.NeedsClockIn = true
			return nil
		}
		if err != nil {
			return err
		}
		state.Punch = punch

		shift, err := s.syncActiveShift(ctx, tx, workerID, punch.ClockIn)
		if err != nil {
			return err
		}
		state.Shift = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// syncActiveShift keeps exactly one active shift starting at start. Older
// duplicates are removed; a drifted start_time is rewritten under the
// version check.
func (s *clockService) syncActiveShift(ctx context.Context, tx *gorm.DB, workerID uuid.UUID, start time.Time) (*model.ActiveShift, error) {
	shifts, err := s.shifts.ListActive(ctx, tx, workerID)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		shift := &model.ActiveShift{UserID: workerID, StartTime: start, Version: 1}
		if err := s.shifts.CreateActive(ctx, tx, shift); err != nil {
			return nil, err
		}
		log.Info().Str("worker_id", workerID.String()).Time("start_time", start).Msg("clock: active shift rebuilt from open punch")
		return shift, nil
	}

	latest := shifts[0]
	if len(shifts) > 1 {
		stale := make([]uuid.UUID, 0, len(shifts)-1)
		for _, sh := range shifts[1:] {
			stale = append(stale, sh.ID)
		}
		if err := s.shifts.DeleteActive(ctx, tx, stale); err != nil {
			return nil, err
		}
	}
	if !latest.StartTime.Equal(start) {
		ok, err := s.shifts.UpdateStartTime(ctx, tx, latest.ID, latest.Version, start)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrShiftConflict
		}
		latest.StartTime = start
		latest.Version++
	}
	return &latest, nil
}

// ── ClockIn ───────────────────────────────────────────────────────────────────
// A second clock-in while a punch is open is a conflict, never a silent no-op.

func (s *clockService) ClockIn(ctx context.Context, workerID uuid.UUID, at time.Time) (*ShiftState, error) {
	user, err := s.findUser(ctx, workerID)
	if err != nil {
		return nil, err
	}
	at = at.Truncate(time.Microsecond)

	state := &ShiftState{}
	err = runTx(ctx, s.punches.DB(), func(tx *gorm.DB) error {
		if _, err := s.punches.FindOpen(ctx, tx, workerID); err == nil {
			return ErrClockInConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		punch := &model.TimeClockRecord{UserID: workerID, ClockIn: at, CreatedAt: at, UpdatedAt: at}
		if err := s.punches.Create(ctx, tx, punch); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrClockInConflict
			}
			return err
		}
		if _, err := s.shifts.DeleteActiveForUser(ctx, tx, workerID); err != nil {
			return err
		}
		shift := &model.ActiveShift{UserID: workerID, StartTime: at, Version: 1, CreatedAt: at}
		if err := s.shifts.CreateActive(ctx, tx, shift); err != nil {
			return err
		}
		state.Punch, state.Shift = punch, shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDetached(user, ClockNotification{WorkerName: user.Name, Event: ClockEntry, At: at})
	return state, nil
}

// ── ClockOut ──────────────────────────────────────────────────────────────────

func (s *clockService) ClockOut(ctx context.Context, workerID uuid.UUID, at time.Time) (bool, error) {
	at = at.Truncate(time.Microsecond)
	var punch *model.TimeClockRecord
	err := runTx(ctx, s.punches.DB(), func(tx *gorm.DB) error {
		var err error
		punch, err = closeOpenPunch(ctx, tx, s.punches, workerID, at)
		return err
	})
	if err != nil || punch == nil {
		return false, err
	}

	if user, err := s.findUser(ctx, workerID); err == nil {
		s.notifyDetached(user, ClockNotification{
			WorkerName: user.Name,
			Event:      ClockReceipt,
			At:         at,
			ClockIn:    punch.ClockIn.In(s.loc).Format(receiptLayout),
			ClockOut:   at.In(s.loc).Format(receiptLayout),
			TotalHours: FormatDuration(at.Sub(punch.ClockIn)),
		})
	}
	return true, nil
}

// closeOpenPunch sets clock_out on the worker's open punch. It returns nil
// without error when no punch is open.
func closeOpenPunch(ctx context.Context, tx *gorm.DB, punches repository.TimeClockRepository, workerID uuid.UUID, at time.Time) (*model.TimeClockRecord, error) {
	punch, err := punches.FindOpen(ctx, tx, workerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	closed, err := punches.Close(ctx, tx, punch.ID, at)
	if err != nil || !closed {
		return nil, err
	}
	punch.ClockOut = &at
	return punch, nil
}

func (s *clockService) findUser(ctx context.Context, workerID uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, workerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// notifyDetached sends a clock receipt without blocking the caller. Failures
// end up in the launcher's side channel.
func (s *clockService) notifyDetached(user *model.User, n ClockNotification) {
	if user.WhatsAppNumber == nil || *user.WhatsAppNumber == "" {
		log.Warn().Str("worker_id", user.ID.String()).Msg("clock: worker has no whatsapp number, skipping receipt")
		return
	}
	n.Number = *user.WhatsAppNumber
	payload := map[string]interface{}{
		"worker_id": user.ID.String(),
		"event":     n.Event,
		"at":        n.At,
	}
	s.launcher.Go("clock_"+string(n.Event), payload, func(ctx context.Context) error {
		return s.notifier.SendClockNotification(ctx, n)
	})
}
