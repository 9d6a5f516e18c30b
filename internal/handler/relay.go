package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"pdvinova/internal/apierror"
	"pdvinova/internal/dto"
	"pdvinova/internal/infra"
	"pdvinova/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RelayStatusSource reports the relay connection.
type RelayStatusSource interface {
	Status(ctx context.Context) infra.RelayStatus
}

// RelayHandler serves the WhatsApp bot routes the frontends call, with
// {success, message|error} bodies.
type RelayHandler struct {
	notifier  service.NotificationService
	reports   *service.ExternalReportSender
	assistant service.AssistantService
	status    RelayStatusSource
	loc       *time.Location
}

func NewRelayHandler(
	notifier service.NotificationService,
	reports *service.ExternalReportSender,
	assistant service.AssistantService,
	status RelayStatusSource,
	loc *time.Location,
) *RelayHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RelayHandler{notifier: notifier, reports: reports, assistant: assistant, status: status, loc: loc}
}

const clockTimeLayout = "02/01/2006 às 15:04:05"

// SendClockNotification godoc
// @Summary      Enviar comprovante de ponto
// @Tags         whatsapp
// @Accept       json
// @Produce      json
// @Param        body body     dto.ClockNotificationRequest true "Comprovante"
// @Success      200  {object} apierror.RelayResponse
// @Failure      400  {object} apierror.RelayResponse
// @Failure      503  {object} apierror.RelayResponse
// @Router       /send-clock-notification [post]
func (h *RelayHandler) SendClockNotification(c *gin.Context) {
	var req dto.ClockNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.RelayFail("JSON inválido"))
		return
	}
	if strings.TrimSpace(req.WhatsAppNumber) == "" {
		h.fail(c, service.ErrMissingDestination)
		return
	}
	if service.IsGroupTarget(req.WhatsAppNumber) {
		h.fail(c, service.ErrGroupTarget)
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.RelayFail("Campos obrigatórios ausentes"))
		return
	}
	if !h.connected(c) {
		return
	}

	ev, ok := service.ParseClockEvent(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.RelayFail("Tipo de notificação inválido"))
		return
	}
	at, err := parseClockTime(req.ClockTime, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.RelayFail("clock_time inválido"))
		return
	}

	n := service.ClockNotification{
		Number:     req.WhatsAppNumber,
		WorkerName: req.UserName,
		Event:      ev,
		At:         at,
		ClockIn:    req.Entrada,
		ClockOut:   req.Saida,
		TotalHours: req.TotalHoras,
	}
	if err := h.notifier.SendClockNotification(c.Request.Context(), n); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.RelayOK("Notificação enviada com sucesso!"))
}

func parseClockTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(clockTimeLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// SendReport godoc
// @Summary      Enviar relatório de turno
// @Description  Monta o comprovante a partir dos totais enviados. Com pdfData e receiptNumber envia também o PDF.
// @Tags         whatsapp
// @Accept       json
// @Produce      json
// @Param        body body     dto.SendReportRequest true "Relatório"
// @Success      200  {object} apierror.RelayResponse
// @Failure      400  {object} apierror.RelayResponse
// @Failure      503  {object} apierror.RelayResponse
// @Router       /send-report [post]
func (h *RelayHandler) SendReport(c *gin.Context) {
	var req dto.SendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.RelayFail("JSON inválido"))
		return
	}
	if strings.TrimSpace(req.WhatsAppNumber) == "" {
		h.fail(c, service.ErrMissingDestination)
		return
	}
	if service.IsGroupTarget(req.WhatsAppNumber) {
		h.fail(c, service.ErrGroupTarget)
		return
	}
	if !h.connected(c) {
		return
	}

	start, end := h.reportWindow(req.StartTime, req.EndTime)
	pdfText, wantPDF := req.PDFText()
	report := service.ExternalReport{
		Number:         req.WhatsAppNumber,
		WorkerName:     req.User,
		StartTime:      start,
		EndTime:        end,
		TotalSales:     req.TotalSales,
		TotalAmount:    req.TotalAmount,
		AverageTicket:  req.AverageTicket,
		PaymentSummary: toBreakdowns(req.PaymentSummary),
		BrandSummary:   toBreakdowns(req.BrandSummary),
		ShiftDuration:  req.ShiftDuration,
		ReceiptNumber:  req.ReceiptNumber,
		PDFText:        pdfText,
		WantPDF:        wantPDF,
	}
	if err := h.reports.Send(c.Request.Context(), report); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.RelayOK("Relatório enviado com sucesso!"))
}

// reportWindow parses the shift bounds, defaulting to now when absent.
func (h *RelayHandler) reportWindow(startRaw, endRaw string) (time.Time, time.Time) {
	now := time.Now()
	parse := func(raw string) time.Time {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
			return t
		}
		return now
	}
	return parse(startRaw), parse(endRaw)
}

func toBreakdowns(in map[string]dto.PaymentEntry) map[string]service.Breakdown {
	out := make(map[string]service.Breakdown, len(in))
	for k, v := range in {
		out[k] = service.Breakdown{Count: v.Count, Amount: v.Amount}
	}
	return out
}

// Status godoc
// @Summary      Estado da conexão WhatsApp
// @Tags         whatsapp
// @Produce      json
// @Success      200 {object} dto.StatusResponse
// @Router       /status [get]
func (h *RelayHandler) Status(c *gin.Context) {
	st := h.status.Status(c.Request.Context())
	c.JSON(http.StatusOK, dto.StatusResponse{
		Connected: st.Connected,
		Timestamp: time.Now().In(h.loc).Format("02/01/2006 15:04:05"),
	})
}

// Webhook godoc
// @Summary      Webhook da Evolution API
// @Description  Responde perguntas iniciadas por "ia" ou "inovapro" com o assistente.
// @Tags         whatsapp
// @Accept       json
// @Produce      json
// @Success      200 {object} apierror.RelayResponse
// @Router       /webhook [post]
func (h *RelayHandler) Webhook(c *gin.Context) {
	var payload dto.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Data == nil || !payload.Data.IsText() {
		c.JSON(http.StatusOK, apierror.RelayResponse{Success: true})
		return
	}
	msg := service.IncomingMessage{
		From:   payload.Data.Key.RemoteJID,
		Text:   payload.Data.Text(),
		FromMe: payload.Data.Key.FromMe,
	}
	if _, err := h.assistant.HandleIncoming(c.Request.Context(), msg); err != nil {
		log.Error().Err(err).Str("from", msg.From).Msg("webhook: reply failed")
		c.JSON(http.StatusOK, apierror.RelayFail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, apierror.RelayResponse{Success: true})
}

// connected writes a 503 and returns false when the relay is down.
func (h *RelayHandler) connected(c *gin.Context) bool {
	if h.status.Status(c.Request.Context()).Connected {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, apierror.RelayFail(service.ErrRelayUnavailable.Error()))
	return false
}

func (h *RelayHandler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrMissingDestination), errors.Is(err, service.ErrGroupTarget):
		c.JSON(http.StatusBadRequest, apierror.RelayFail(err.Error()))
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, apierror.RelayFail(verr.Error()))
	case errors.Is(err, service.ErrRelayUnavailable):
		c.JSON(http.StatusServiceUnavailable, apierror.RelayFail(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.RelayFail(service.ErrRelayTransport.Error()))
	}
}
