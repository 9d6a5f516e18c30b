package dto

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ─── Relay surface ───────────────────────────────────────────────────────────
// Field names are the ones the frontends already send.

type ClockNotificationRequest struct {
	WhatsAppNumber string `json:"whatsapp_number"`
	UserName       string `json:"user_name"  validate:"required"`
	ClockTime      string `json:"clock_time" validate:"required"` // "02/01/2006 às 15:04:05" or RFC 3339
	Type           string `json:"type"       validate:"required"`
	Entrada        string `json:"entrada"`
	Saida          string `json:"saida"`
	TotalHoras     string `json:"totalHoras"`
}

// PaymentEntry is one line of a frontend-computed payment summary. Amount
// accepts both numbers and numeric strings.
type PaymentEntry struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type SendReportRequest struct {
	User           string                  `json:"user"`
	StartTime      string                  `json:"startTime"`
	EndTime        string                  `json:"endTime"`
	TotalSales     int                     `json:"totalSales"    validate:"min=0"`
	AverageTicket  decimal.Decimal         `json:"averageTicket"`
	TotalAmount    decimal.Decimal         `json:"totalAmount"`
	PaymentSummary map[string]PaymentEntry `json:"paymentSummary"`
	BrandSummary   map[string]PaymentEntry `json:"brandSummary"`
	WhatsAppNumber string                  `json:"whatsapp_number"`
	ShiftDuration  string                  `json:"shiftDuration"`
	PDFData        json.RawMessage         `json:"pdfData"`
	ReceiptNumber  string                  `json:"receiptNumber"`
}

// PDFText extracts the receipt text of pdfData, which is either a string or
// an object with receiptText or data. ok is false when pdfData is absent.
func (r SendReportRequest) PDFText() (text string, ok bool) {
	raw := strings.TrimSpace(string(r.PDFData))
	if raw == "" || raw == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.PDFData, &s); err == nil {
		return s, true
	}
	var obj struct {
		ReceiptText string `json:"receiptText"`
		Data        string `json:"data"`
	}
	if err := json.Unmarshal(r.PDFData, &obj); err != nil {
		return "", true
	}
	if obj.ReceiptText != "" {
		return obj.ReceiptText, true
	}
	return obj.Data, true
}

type StatusResponse struct {
	Connected bool   `json:"connected"`
	Timestamp string `json:"timestamp"`
}

// WebhookPayload is the subset of the Evolution API event envelope the
// assistant reads.
type WebhookPayload struct {
	Data *WebhookData `json:"data"`
}

type WebhookData struct {
	MessageType string `json:"messageType"`
	Message     struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
	Key struct {
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
}

// IsText reports whether the event carries a plain or extended text message.
func (d *WebhookData) IsText() bool {
	return d.MessageType == "conversation" || d.MessageType == "extendedTextMessage"
}

// Text returns the message body.
func (d *WebhookData) Text() string {
	if d.Message.Conversation != "" {
		return d.Message.Conversation
	}
	if d.Message.ExtendedTextMessage != nil {
		return d.Message.ExtendedTextMessage.Text
	}
	return ""
}
