package handler

import (
	"net/http"

	"pdvinova/internal/apierror"
	"pdvinova/internal/dto"
	"pdvinova/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// Record godoc
// @Summary      Registrar contagem de inventário
// @Description  Grava a contagem aberta do produto; uma nova contagem substitui a que ainda está aberta.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Param        body body     dto.RecordCountRequest true "Contagem"
// @Success      201  {object} dto.InventoryCountResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/inventory-counts [post]
func (h *InventoryHandler) Record(c *gin.Context) {
	var req dto.RecordCountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Record(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Edit godoc
// @Summary      Corrigir contagem
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Param        id   path     string                true "UUID da contagem"
// @Param        body body     dto.EditCountRequest  true "Nova quantidade"
// @Success      200  {object} dto.InventoryCountResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/inventory-counts/{id} [put]
func (h *InventoryHandler) Edit(c *gin.Context) {
	id, ok := countParam(c)
	if !ok {
		return
	}
	var req dto.EditCountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Edit(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary      Fechar contagem
// @Description  Vendas futuras não afetarão esta contagem.
// @Tags         inventario
// @Param        id  path string true "UUID da contagem"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/inventory-counts/{id}/close [post]
func (h *InventoryHandler) Close(c *gin.Context) {
	id, ok := countParam(c)
	if !ok {
		return
	}
	if err := h.svc.Close(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Latest godoc
// @Summary      Última contagem do produto
// @Tags         inventario
// @Produce      json
// @Param        product_id query    string true "UUID do produto"
// @Success      200        {object} dto.InventoryCountResponse
// @Failure      404        {object} apierror.APIError
// @Router       /v1/inventory-counts/latest [get]
func (h *InventoryHandler) Latest(c *gin.Context) {
	id, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("product_id inválido"))
		return
	}
	resp, err := h.svc.Latest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      Listar contagens
// @Tags         inventario
// @Produce      json
// @Param        from       query    string false "Dia inicial AAAA-MM-DD"
// @Param        to         query    string false "Dia final AAAA-MM-DD"
// @Param        usuario    query    string false "Nome do usuário"
// @Param        product_id query    string false "UUID do produto"
// @Success      200        {object} dto.InventoryListResponse
// @Router       /v1/inventory-counts [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var filter dto.InventoryFilter
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

// Report godoc
// @Summary      Relatório de inventário em PDF
// @Tags         inventario
// @Produce      application/pdf
// @Param        from       query    string false "Dia inicial AAAA-MM-DD"
// @Param        to         query    string false "Dia final AAAA-MM-DD"
// @Param        usuario    query    string false "Nome do usuário"
// @Param        product_id query    string false "UUID do produto"
// @Success      200        {file}   binary
// @Failure      404        {object} apierror.APIError
// @Router       /v1/inventory-counts/report.pdf [get]
func (h *InventoryHandler) Report(c *gin.Context) {
	var filter dto.InventoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, err := h.svc.ReportPDF(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="inventario.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func countParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}
