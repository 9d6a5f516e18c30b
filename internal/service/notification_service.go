package service

import (
	"context"
	"errors"
	"time"

	"pdvinova/internal/infra"

	"github.com/rs/zerolog/log"
)

// ClockEvent is the kind of time-clock receipt.
type ClockEvent string

const (
	ClockEntry   ClockEvent = "entry"
	ClockExit    ClockEvent = "exit"
	ClockReceipt ClockEvent = "receipt"
)

// ParseClockEvent accepts the English names and the Portuguese ones used by
// the older frontends.
func ParseClockEvent(raw string) (ClockEvent, bool) {
	switch raw {
	case "entry", "entrada":
		return ClockEntry, true
	case "exit", "saida":
		return ClockExit, true
	case "receipt", "comprovante":
		return ClockReceipt, true
	}
	return "", false
}

// ClockNotification is one clock receipt. ClockIn, ClockOut and TotalHours are
// preformatted extras printed on receipts.
type ClockNotification struct {
	Number     string
	WorkerName string
	Event      ClockEvent
	At         time.Time
	ClockIn    string
	ClockOut   string
	TotalHours string
}

// ShiftReport is the closing receipt of a shift. PDF is optional.
type ShiftReport struct {
	Number        string
	WorkerName    string
	Summary       ShiftSummary
	ShiftDuration string
	ReceiptNumber string
	PDF           []byte
}

// Relay is the outbound messaging gateway.
type Relay interface {
	SendText(ctx context.Context, number, text string) error
	SendMedia(ctx context.Context, m infra.MediaMessage) error
}

// NotificationService formats receipts and hands them to the relay. It never
// retries: a failed POST is logged and returned to the caller.
type NotificationService interface {
	SendClockNotification(ctx context.Context, n ClockNotification) error
	SendShiftReport(ctx context.Context, r ShiftReport) error
	// SendText delivers free text, used for assistant replies.
	SendText(ctx context.Context, number, text string) error
}

type NotificationConfig struct {
	CountryPrefix string
	Store         StoreInfo
	Location      *time.Location
}

type notificationService struct {
	relay Relay
	cfg   NotificationConfig
}

func NewNotificationService(relay Relay, cfg NotificationConfig) NotificationService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CountryPrefix == "" {
		cfg.CountryPrefix = "55"
	}
	return &notificationService{relay: relay, cfg: cfg}
}

func (s *notificationService) SendClockNotification(ctx context.Context, n ClockNotification) error {
	number, err := NormalizeNumber(n.Number, s.cfg.CountryPrefix)
	if err != nil {
		return err
	}
	ev, ok := ParseClockEvent(string(n.Event))
	if !ok {
		return newValidation("type", "tipo de notificação inválido")
	}
	n.Event = ev
	msg := ClockMessage(n, s.cfg.Store, s.cfg.Location)
	if err := s.relay.SendText(ctx, number, msg); err != nil {
		return s.relayFailure("sendText", number, err)
	}
	log.Info().Str("number", number).Str("event", string(n.Event)).Msg("notification: clock receipt sent")
	return nil
}

func (s *notificationService) SendShiftReport(ctx context.Context, r ShiftReport) error {
	number, err := NormalizeNumber(r.Number, s.cfg.CountryPrefix)
	if err != nil {
		return err
	}
	msg := ShiftReportMessage(r, s.cfg.Store, s.cfg.Location)
	if err := s.relay.SendText(ctx, number, msg); err != nil {
		return s.relayFailure("sendText", number, err)
	}

	if len(r.PDF) > 0 {
		media := infra.MediaMessage{
			Number:   number,
			Caption:  "📄 Relatório do turno " + r.ReceiptNumber,
			FileName: "relatorio_turno_" + r.ReceiptNumber + ".pdf",
			MimeType: "application/pdf",
			Data:     r.PDF,
		}
		if err := s.relay.SendMedia(ctx, media); err != nil {
			return s.relayFailure("sendMedia", number, err)
		}
	}
	log.Info().Str("number", number).Str("receipt", r.ReceiptNumber).Bool("pdf", len(r.PDF) > 0).Msg("notification: shift report sent")
	return nil
}

func (s *notificationService) SendText(ctx context.Context, number, text string) error {
	normalized, err := NormalizeNumber(number, s.cfg.CountryPrefix)
	if err != nil {
		return err
	}
	if err := s.relay.SendText(ctx, normalized, text); err != nil {
		return s.relayFailure("sendText", normalized, err)
	}
	return nil
}

// relayFailure logs the upstream body when there is one and wraps the error.
func (s *notificationService) relayFailure(op, number string, err error) error {
	rerr := &RelayError{Op: op, Err: err}
	var up *infra.UpstreamError
	if errors.As(err, &up) {
		rerr.Status = up.Status
		rerr.Body = up.Body
		rerr.Err = nil
	}
	log.Error().
		Str("op", op).
		Str("number", number).
		Int("upstream_status", rerr.Status).
		Str("upstream_body", rerr.Body).
		Err(err).
		Msg("notification: relay call failed")
	return rerr
}
