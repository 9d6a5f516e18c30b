package handler

import (
	"net/http"
	"time"

	"pdvinova/internal/apierror"
	"pdvinova/internal/dto"
	"pdvinova/internal/service"

	"github.com/gin-gonic/gin"
)

type TimesheetHandler struct {
	svc service.TimesheetService
	loc *time.Location
}

func NewTimesheetHandler(svc service.TimesheetService, loc *time.Location) *TimesheetHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TimesheetHandler{svc: svc, loc: loc}
}

// Month godoc
// @Summary      Pontos do mês
// @Tags         ponto
// @Produce      json
// @Param        id    path     string true  "UUID do funcionário"
// @Param        month query    string false "Mês AAAA-MM (default: mês atual)"
// @Success      200   {object} dto.TimesheetResponse
// @Router       /v1/workers/{id}/timesheet [get]
func (h *TimesheetHandler) Month(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	month, ok := h.month(c)
	if !ok {
		return
	}
	resp, err := h.svc.Month(c.Request.Context(), workerID, month.Year(), month.Month())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// XLSX godoc
// @Summary      Exportar pontos do mês
// @Tags         ponto
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id    path     string true  "UUID do funcionário"
// @Param        month query    string false "Mês AAAA-MM (default: mês atual)"
// @Success      200   {file}   binary
// @Router       /v1/workers/{id}/timesheet.xlsx [get]
func (h *TimesheetHandler) XLSX(c *gin.Context) {
	workerID, ok := workerParam(c)
	if !ok {
		return
	}
	month, ok := h.month(c)
	if !ok {
		return
	}
	data, err := h.svc.MonthXLSX(c.Request.Context(), workerID, month.Year(), month.Month())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pontos_`+month.Format("2006-01")+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *TimesheetHandler) month(c *gin.Context) (time.Time, bool) {
	var q dto.TimesheetQuery
	if !bindQuery(c, &q) {
		return time.Time{}, false
	}
	if q.Month == "" {
		return time.Now().In(h.loc), true
	}
	m, err := time.ParseInLocation("2006-01", q.Month, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("month deve estar no formato AAAA-MM"))
		return time.Time{}, false
	}
	return m, true
}
