package handler

import (
	"net/http"

	"pdvinova/internal/apierror"
	"pdvinova/internal/dto"
	"pdvinova/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Register godoc
// @Summary      Registrar venda
// @Description  Registra a venda com seus itens, baixa o estoque e grava os movimentos de saída numa única transação.
// @Tags         vendas
// @Accept       json
// @Produce      json
// @Param        body body dto.RegisterSaleRequest true "Venda"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/sales [post]
func (h *SalesHandler) Register(c *gin.Context) {
	var req dto.RegisterSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary      Cancelar venda
// @Description  Remove a venda e seus itens.
// @Tags         vendas
// @Param        id   path     string true "UUID da venda"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary      Listar vendas
// @Description  Histórico de vendas filtrado por funcionário e dia.
// @Tags         vendas
// @Produce      json
// @Param        worker_id query string false "UUID do funcionário"
// @Param        date      query string false "Dia AAAA-MM-DD"
// @Param        limit     query int    false "Máximo de registros (default 50)"
// @Success      200       {object} dto.SaleListResponse
// @Failure      422       {object} apierror.ValidationError
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
