package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"pdvinova/internal/apierror"
	"pdvinova/internal/dto"
	"pdvinova/internal/infra"
	"pdvinova/internal/model"
	"pdvinova/internal/repository"
	"pdvinova/internal/service"

	"github.com/gin-gonic/gin"
)

const maxDumpBytes = 32 << 20

// ProductLookup finds a catalog product by barcode.
type ProductLookup interface {
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
}

// ProductsHandler serves the barcode lookup used by the checkout scanner and
// the SQL dump import. cache may be nil. Sales and imports invalidate it in
// the services.
type ProductsHandler struct {
	lookup   ProductLookup
	importer service.ImportService
	cache    *infra.ProductCache
}

func NewProductsHandler(lookup ProductLookup, importer service.ImportService, cache *infra.ProductCache) *ProductsHandler {
	return &ProductsHandler{lookup: lookup, importer: importer, cache: cache}
}

// ByBarcode godoc
// @Summary      Buscar produto pelo código de barras
// @Tags         produtos
// @Produce      json
// @Param        barcode path     string true "Código de barras"
// @Success      200     {object} dto.ProductLookupResponse
// @Failure      404     {object} apierror.APIError
// @Router       /v1/products/barcode/{barcode} [get]
func (h *ProductsHandler) ByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	ctx := c.Request.Context()

	var cached dto.ProductLookupResponse
	if h.cache.Get(ctx, barcode, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	p, err := h.lookup.FindByBarcode(ctx, barcode)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("Produto não encontrado"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.ProductLookupResponse{
		ID:       p.ID.String(),
		Barcode:  barcode,
		Name:     p.Name,
		Price:    p.Price,
		StockQty: p.StockQty,
		Unit:     p.Unit,
		Category: p.Category,
	}

	h.cache.Set(context.Background(), barcode, resp)
	c.JSON(http.StatusOK, resp)
}

// Import godoc
// @Summary      Importar produtos de um dump SQL
// @Description  Lê as tuplas INSERT da tabela products; mantém só itens com código de barras ou [codigo] na descrição.
// @Tags         produtos
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Arquivo .sql"
// @Success      200  {object} dto.ImportResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/products/import [post]
func (h *ProductsHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Envie o arquivo no campo 'file'"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Não foi possível ler o arquivo"))
		return
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxDumpBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Não foi possível ler o arquivo"))
		return
	}
	if len(body) > maxDumpBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("Arquivo muito grande"))
		return
	}

	res, err := h.importer.Import(c.Request.Context(), string(body))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.ImportResponse{
		Parsed:     res.Parsed,
		Filtered:   res.Filtered,
		Invalid:    res.Invalid,
		Duplicates: res.Duplicates,
		Imported:   res.Imported,
		Failed:     res.Failed,
		Detail:     "Importação concluída",
	}
	if res.Parsed-res.Filtered == 0 {
		resp.Detail = "Não foram encontrados produtos com código de barras ou [codigo] na descrição."
	}
	c.JSON(http.StatusOK, resp)
}
