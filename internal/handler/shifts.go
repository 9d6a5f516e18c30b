package handler

import (
	"net/http"
	"time"

	"pdvinova/internal/dto"
	"pdvinova/internal/service"

	"github.com/gin-gonic/gin"
)

// ShiftsHandler serves the time clock and the shift closer.
type ShiftsHandler struct {
	clock  service.ClockService
	shifts service.ShiftService
	loc    *time.Location
	now    func() time.Time
}

func NewShiftsHandler(clock service.ClockService, shifts service.ShiftService, loc *time.Location) *ShiftsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftsHandler{clock: clock, shifts: shifts, loc: loc, now: time.Now}
}

// State godoc
// @Summary      Estado do turno
// @Description  Reconcilia o turno ativo com o ponto aberto e retorna o estado resultante.
// @Tags         turnos
// @Produce      json
// @Param        id  path     string true "UUID do funcionário"
// @Success      200 {object} dto.ShiftStateResponse
// @Router       /v1/workers/{id}/shift [get]
func (h *ShiftsHandler) State(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	state, err := h.clock.EnsureConsistentState(c.Request.Context(), workerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stateResponse(workerID.String(), state))
}

// ClockIn godoc
// @Summary      Registrar entrada
// @Description  Abre o ponto e o turno. O comprovante é enviado pelo WhatsApp em segundo plano.
// @Tags         turnos
// @Produce      json
// @Param        id  path     string true "UUID do funcionário"
// @Success      201 {object} dto.ShiftStateResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/workers/{id}/clock-in [post]
func (h *ShiftsHandler) ClockIn(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	state, err := h.clock.ClockIn(c.Request.Context(), workerID, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.stateResponse(workerID.String(), state))
}

// ClockOut godoc
// @Summary      Registrar saída
// @Description  Fecha o ponto aberto. Sem ponto aberto não faz nada.
// @Tags         turnos
// @Produce      json
// @Param        id  path     string true "UUID do funcionário"
// @Success      200 {object} dto.ClockOutResponse
// @Router       /v1/workers/{id}/clock-out [post]
func (h *ShiftsHandler) ClockOut(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	closed, err := h.clock.ClockOut(c.Request.Context(), workerID, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.ClockOutResponse{Closed: closed, Detail: "Saída registrada"}
	if !closed {
		resp.Detail = "Nenhum ponto aberto"
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Prévia do fechamento
// @Description  Resumo de vendas do turno aberto, sem fechá-lo.
// @Tags         turnos
// @Produce      json
// @Param        id  path     string true "UUID do funcionário"
// @Success      200 {object} dto.ShiftSummaryResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/workers/{id}/shift/summary [get]
func (h *ShiftsHandler) Summary(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	p, err := h.shifts.Preview(c.Request.Context(), workerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse(p.Summary, p.Duration, h.loc))
}

// Finalize godoc
// @Summary      Finalizar turno
// @Description  Fecha o turno, grava o fechamento e envia o comprovante. Falha no envio não desfaz o fechamento.
// @Tags         turnos
// @Produce      json
// @Param        id  path     string true "UUID do funcionário"
// @Success      200 {object} dto.FinalizeResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/workers/{id}/shift/finalize [post]
func (h *ShiftsHandler) Finalize(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	res, err := h.shifts.Finalize(c.Request.Context(), workerID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.FinalizeResponse{
		ClosureID:         res.Closure.ID.String(),
		ReceiptNumber:     res.Closure.ReceiptNumber,
		Summary:           summaryResponse(res.Summary, res.Duration, h.loc),
		NotificationSent:  res.NotificationSent,
		NotificationError: res.NotificationError,
		Detail:            "Turno finalizado e comprovante enviado",
	}
	if !res.NotificationSent {
		resp.Detail = "Turno finalizado, mas o comprovante não foi enviado. Verifique o número de WhatsApp e a conexão e reenvie pelo histórico."
	}
	c.JSON(http.StatusOK, resp)
}

// Closures godoc
// @Summary      Histórico de fechamentos
// @Tags         turnos
// @Produce      json
// @Param        id    path     string true  "UUID do funcionário"
// @Param        limit query    int    false "Máximo de registros (default 20)"
// @Success      200   {array}  dto.ShiftClosureResponse
// @Router       /v1/workers/{id}/shift-closures [get]
func (h *ShiftsHandler) Closures(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	var q dto.ClosureQuery
	if !bindQuery(c, &q) {
		return
	}
	closures, err := h.shifts.ListClosures(c.Request.Context(), workerID, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.ShiftClosureResponse, 0, len(closures))
	for _, cl := range closures {
		out = append(out, dto.ShiftClosureResponse{
			ID:             cl.ID.String(),
			ReceiptNumber:  cl.ReceiptNumber,
			ShiftStartTime: cl.ShiftStartTime.In(h.loc).Format(time.RFC3339),
			ShiftEndTime:   cl.ShiftEndTime.In(h.loc).Format(time.RFC3339),
			TotalSales:     cl.TotalSales,
			TotalAmount:    cl.TotalAmount,
			AverageTicket:  cl.AverageTicket,
			PaymentSummary: []byte(cl.PaymentSummary),
			CreatedAt:      cl.CreatedAt.In(h.loc).Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ShiftsHandler) stateResponse(workerID string, s *service.ShiftState) dto.ShiftStateResponse {
	resp := dto.ShiftStateResponse{WorkerID: workerID, NeedsClockIn: s.NeedsClockIn}
	if s.Punch != nil {
		id := s.Punch.ID.String()
		at := s.Punch.ClockIn.In(h.loc).Format(time.RFC3339)
		resp.PunchID, resp.ClockIn = &id, &at
	}
	if s.Shift != nil {
		id := s.Shift.ID.String()
		at := s.Shift.StartTime.In(h.loc).Format(time.RFC3339)
		resp.ActiveShiftID, resp.ShiftStartTime = &id, &at
	}
	return resp
}

func summaryResponse(s service.ShiftSummary, duration string, loc *time.Location) dto.ShiftSummaryResponse {
	resp := dto.ShiftSummaryResponse{
		TotalSalesCount:  s.TotalSalesCount,
		TotalAmount:      s.TotalAmount.Round(2),
		AverageTicket:    s.AverageTicket.Round(2),
		PaymentBreakdown: make(map[string]dto.BreakdownResponse, len(s.PaymentBreakdown)),
		BrandBreakdown:   make(map[string]dto.BreakdownResponse, len(s.BrandBreakdown)),
		StartTime:        s.StartTime.In(loc).Format(time.RFC3339),
		EndTime:          s.EndTime.In(loc).Format(time.RFC3339),
		Duration:         duration,
	}
	for k, v := range s.PaymentBreakdown {
		resp.PaymentBreakdown[k] = dto.BreakdownResponse{Count: v.Count, Amount: v.Amount}
	}
	for k, v := range s.BrandBreakdown {
		resp.BrandBreakdown[k] = dto.BreakdownResponse{Count: v.Count, Amount: v.Amount}
	}
	return resp
}
