package worker

// email_worker.go
// Processes email jobs from QueueEmail: the manager copy of a shift report,
// with the PDF attached.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// ReportSender delivers one e-mail.
type ReportSender interface {
	SendReport(to, subject, body, pdfPath string) error
}

type EmailWorker struct {
	mailer ReportSender
}

func NewEmailWorker(mailer ReportSender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends the e-mail. Invalid payloads are dropped with an error so the
// pool moves them to the DLQ.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		return errors.New("email_worker: empty to_email")
	}

	if err := w.mailer.SendReport(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: shift report sent")
	return nil
}
