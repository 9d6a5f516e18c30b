package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdvinova/internal/infra"
	"pdvinova/internal/model"
	"pdvinova/internal/repository"
	"pdvinova/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReceiptIssuer hands out unique closing receipt numbers.
type ReceiptIssuer interface {
	ReceiptNumber() string
}

// EmailQueue accepts manager copies of shift reports.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

// PDFRenderer turns a report layout into PDF bytes.
type PDFRenderer func(doc infra.ReportDocument) ([]byte, error)

// ShiftConfig carries the store-level settings of the closer.
type ShiftConfig struct {
	Store          StoreInfo
	Location       *time.Location
	ManagerEmail   string
	PDFStoragePath string
}

// FinalizeResult reports a closed shift. The closure is persisted even when
// NotificationSent is false.
type FinalizeResult struct {
	Closure           *model.ShiftClosure
	Summary           ShiftSummary
	Duration          string
	NotificationSent  bool
	NotificationError string
}

// ShiftPreview is the running summary of an open shift.
type ShiftPreview struct {
	Shift    *model.ActiveShift
	Summary  ShiftSummary
	Duration string
}

type ShiftService interface {
	Finalize(ctx context.Context, workerID uuid.UUID) (*FinalizeResult, error)
	Preview(ctx context.Context, workerID uuid.UUID) (*ShiftPreview, error)
	ListClosures(ctx context.Context, workerID uuid.UUID, limit int) ([]model.ShiftClosure, error)
}

type shiftService struct {
	users    repository.UserRepository
	punches  repository.TimeClockRepository
	shifts   repository.ShiftRepository
	sales    repository.SaleRepository
	notifier NotificationService
	receipts ReceiptIssuer
	render   PDFRenderer
	emails   EmailQueue
	cfg      ShiftConfig
	now      Clock
}

// ShiftDeps groups the collaborators of NewShiftService. Render, Emails and
// Now are optional.
type ShiftDeps struct {
	Users    repository.UserRepository
	Punches  repository.TimeClockRepository
	Shifts   repository.ShiftRepository
	Sales    repository.SaleRepository
	Notifier NotificationService
	Receipts ReceiptIssuer
	Render   PDFRenderer
	Emails   EmailQueue
	Now      Clock
}

func NewShiftService(d ShiftDeps, cfg ShiftConfig) ShiftService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = systemClock
	}
	return &shiftService{
		users:    d.Users,
		punches:  d.Punches,
		shifts:   d.Shifts,
		sales:    d.Sales,
		notifier: d.Notifier,
		receipts: d.Receipts,
		render:   d.Render,
		emails:   d.Emails,
		cfg:      cfg,
		now:      d.Now,
	}
}

// ── Finalize ──────────────────────────────────────────────────────────────────

func (s *shiftService) Finalize(ctx context.Context, workerID uuid.UUID) (*FinalizeResult, error) {
	user, err := s.users.FindByID(ctx, workerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	active, err := s.shifts.ListActive(ctx, nil, workerID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveShift
	}
	shift := active[0]

	end := s.now().Truncate(time.Microsecond)
	sales, err := s.sales.ListByUserBetween(ctx, workerID, shift.StartTime, end)
	if err != nil {
		return nil, err
	}
	summary := Summarize(workerID, shift.StartTime, end, sales)
	duration := FormatDuration(end.Sub(shift.StartTime))

	closure, err := s.buildClosure(workerID, shift, summary, user.Name, duration)
	if err != nil {
		return nil, err
	}

	err = runTx(ctx, s.shifts.DB(), func(tx *gorm.DB) error {
		claimed, err := s.shifts.ClaimActive(ctx, tx, shift.ID, shift.Version)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrShiftConflict
		}
		if len(active) > 1 {
			rest := make([]uuid.UUID, 0, len(active)-1)
			for _, sh := range active[1:] {
				rest = append(rest, sh.ID)
			}
			if err := s.shifts.DeleteActive(ctx, tx, rest); err != nil {
				return err
			}
		}
		if err := s.shifts.CreateClosure(ctx, tx, closure); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrShiftConflict
			}
			return err
		}
		_, err = closeOpenPunch(ctx, tx, s.punches, workerID, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("worker_id", workerID.String()).
		Str("receipt", closure.ReceiptNumber).
		Int("sales", summary.TotalSalesCount).
		Str("total", summary.TotalAmount.StringFixed(2)).
		Msg("shift: finalized")

	result := &FinalizeResult{Closure: closure, Summary: summary, Duration: duration}
	report := ShiftReport{
		WorkerName:    user.Name,
		Summary:       summary,
		ShiftDuration: duration,
		ReceiptNumber: closure.ReceiptNumber,
	}
	report.PDF = s.renderPDF(report)

	if user.WhatsAppNumber == nil || strings.TrimSpace(*user.WhatsAppNumber) == "" {
		result.NotificationError = ErrMissingDestination.Error()
	} else {
		report.Number = *user.WhatsAppNumber
		if err := s.notifier.SendShiftReport(ctx, report); err != nil {
			result.NotificationError = err.Error()
		} else {
			result.NotificationSent = true
		}
	}

	s.enqueueManagerCopy(ctx, report)
	return result, nil
}

func (s *shiftService) buildClosure(workerID uuid.UUID, shift model.ActiveShift, sum ShiftSummary, workerName, duration string) (*model.ShiftClosure, error) {
	payments, err := json.Marshal(sum.PaymentBreakdown)
	if err != nil {
		return nil, fmt.Errorf("shift: encode payment summary: %w", err)
	}
	report, err := json.Marshal(map[string]interface{}{
		"worker_name":    workerName,
		"shift_duration": duration,
		"summary":        sum,
	})
	if err != nil {
		return nil, fmt.Errorf("shift: encode report data: %w", err)
	}
	return &model.ShiftClosure{
		UserID:         workerID,
		ActiveShiftID:  shift.ID,
		ReceiptNumber:  s.receipts.ReceiptNumber(),
		ShiftStartTime: shift.StartTime,
		ShiftEndTime:   sum.EndTime,
		TotalSales:     sum.TotalSalesCount,
		TotalAmount:    sum.TotalAmount.Round(2),
		AverageTicket:  sum.AverageTicket.Round(2),
		PaymentSummary: datatypes.JSON(payments),
		ReportData:     datatypes.JSON(report),
		CreatedAt:      sum.EndTime,
	}, nil
}

// renderPDF returns nil when rendering is disabled or fails; the report then
// goes out as text only.
func (s *shiftService) renderPDF(r ShiftReport) []byte {
	if s.render == nil {
		return nil
	}
	// Sections already carry the figures; the WhatsApp text has emoji the
	// PDF core fonts cannot print.
	pdf, err := s.render(ShiftReportDocument(r, s.cfg.Store, s.cfg.Location))
	if err != nil {
		log.Warn().Err(err).Str("receipt", r.ReceiptNumber).Msg("shift: PDF render failed, sending text only")
		return nil
	}
	return pdf
}

func (s *shiftService) enqueueManagerCopy(ctx context.Context, r ShiftReport) {
	if s.emails == nil || s.cfg.ManagerEmail == "" {
		return
	}
	var pdfPath string
	if len(r.PDF) > 0 && s.cfg.PDFStoragePath != "" {
		path, err := infra.SavePDF(s.cfg.PDFStoragePath, "relatorio_turno_"+r.ReceiptNumber+".pdf", r.PDF)
		if err != nil {
			log.Warn().Err(err).Str("receipt", r.ReceiptNumber).Msg("shift: could not store PDF for e-mail")
		}
		pdfPath = path
	}
	payload := worker.EmailJobPayload{
		ToEmail: s.cfg.ManagerEmail,
		Subject: "Fechamento de turno " + r.ReceiptNumber + " - " + r.WorkerName,
		Body:    ShiftReportMessage(r, s.cfg.Store, s.cfg.Location),
		PDFPath: pdfPath,
	}
	if err := s.emails.EnqueueEmail(ctx, payload); err != nil {
		log.Warn().Err(err).Str("receipt", r.ReceiptNumber).Msg("shift: could not enqueue manager e-mail")
	}
}

// ── Preview / ListClosures ────────────────────────────────────────────────────

func (s *shiftService) Preview(ctx context.Context, workerID uuid.UUID) (*ShiftPreview, error) {
	active, err := s.shifts.ListActive(ctx, nil, workerID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveShift
	}
	shift := active[0]
	end := s.now().Truncate(time.Microsecond)
	sales, err := s.sales.ListByUserBetween(ctx, workerID, shift.StartTime, end)
	if err != nil {
		return nil, err
	}
	return &ShiftPreview{
		Shift:    &shift,
		Summary:  Summarize(workerID, shift.StartTime, end, sales),
		Duration: FormatDuration(end.Sub(shift.StartTime)),
	}, nil
}

const maxClosuresPage = 100

func (s *shiftService) ListClosures(ctx context.Context, workerID uuid.UUID, limit int) ([]model.ShiftClosure, error) {
	if limit <= 0 || limit > maxClosuresPage {
		limit = 20
	}
	return s.shifts.ListClosures(ctx, workerID, limit)
}
