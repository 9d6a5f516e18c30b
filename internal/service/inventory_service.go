package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"pdvinova/internal/dto"
	"pdvinova/internal/infra"
	"pdvinova/internal/model"
	"pdvinova/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultCategory = "Diversos"

type InventoryService interface {
	// Record stores the product's open count, replacing one already open. A
	// recount is dated when it happens.
	Record(ctx context.Context, req dto.RecordCountRequest) (*dto.InventoryCountResponse, error)
	Edit(ctx context.Context, id uuid.UUID, req dto.EditCountRequest) (*dto.InventoryCountResponse, error)
	// Close freezes a count; later sales no longer touch it.
	Close(ctx context.Context, id uuid.UUID) error
	Latest(ctx context.Context, productID uuid.UUID) (*dto.InventoryCountResponse, error)
	List(ctx context.Context, filter dto.InventoryFilter) (*dto.InventoryListResponse, error)
	ReportPDF(ctx context.Context, filter dto.InventoryFilter) ([]byte, error)
}

type inventoryService struct {
	counts   repository.InventoryRepository
	products repository.ProductRepository
	render   PDFRenderer
	store    StoreInfo
	loc      *time.Location
	now      Clock
}

func NewInventoryService(counts repository.InventoryRepository, products repository.ProductRepository, render PDFRenderer, store StoreInfo, loc *time.Location, now Clock) InventoryService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = systemClock
	}
	return &inventoryService{counts: counts, products: products, render: render, store: store, loc: loc, now: now}
}

func (s *inventoryService) Record(ctx context.Context, req dto.RecordCountRequest) (*dto.InventoryCountResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, newValidation("product_id", "identificador inválido")
	}
	if req.CountedQty == nil || *req.CountedQty < 0 {
		return nil, newValidation("quantidade_contada", "informe a quantidade contada")
	}
	user := strings.TrimSpace(req.UserName)
	if user == "" {
		user = "Desconhecido"
	}

	found, err := s.products.FindByIDs(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	p, ok := found[productID]
	if !ok {
		return nil, ErrNotFound
	}

	c := &model.InventoryCount{
		ProductID:   p.ID,
		Barcode:     p.Barcode,
		Name:        p.Name,
		Description: p.Description,
		Category:    countCategory(req.Category, p.Category),
		StockQty:    p.StockQty,
		CountedQty:  *req.CountedQty,
		Difference:  *req.CountedQty - p.StockQty,
		UserName:    user,
		CreatedAt:   s.now(),
	}
	if err := s.counts.UpsertOpen(ctx, c); err != nil {
		return nil, err
	}
	log.Info().
		Str("product_id", p.ID.String()).
		Int("counted", c.CountedQty).
		Int("difference", c.Difference).
		Str("user", user).
		Msg("inventory: count recorded")
	resp := countToResponse(c, s.loc)
	return &resp, nil
}

func (s *inventoryService) Edit(ctx context.Context, id uuid.UUID, req dto.EditCountRequest) (*dto.InventoryCountResponse, error) {
	if req.CountedQty == nil || *req.CountedQty < 0 {
		return nil, newValidation("quantidade_contada", "informe a quantidade contada")
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Closed {
		return nil, ErrCountClosed
	}

	c.CountedQty = *req.CountedQty
	c.Difference = c.CountedQty - c.StockQty
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		c.Category = strings.TrimSpace(*req.Category)
	}
	ok, err := s.counts.UpdateOpen(ctx, id, c.CountedQty, c.Difference, c.Category)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Closed between the read and the write.
		return nil, ErrCountClosed
	}
	resp := countToResponse(c, s.loc)
	return &resp, nil
}

func (s *inventoryService) Close(ctx context.Context, id uuid.UUID) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if c.Closed {
		return nil
	}
	if _, err := s.counts.Close(ctx, id); err != nil {
		return err
	}
	log.Info().Str("count_id", id.String()).Msg("inventory: count closed")
	return nil
}

func (s *inventoryService) Latest(ctx context.Context, productID uuid.UUID) (*dto.InventoryCountResponse, error) {
	c, err := s.counts.LatestForProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := countToResponse(c, s.loc)
	return &resp, nil
}

func (s *inventoryService) List(ctx context.Context, filter dto.InventoryFilter) (*dto.InventoryListResponse, error) {
	counts, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.InventoryListResponse{Data: make([]dto.InventoryCountResponse, 0, len(counts)), Total: len(counts)}
	for i := range counts {
		resp.Data = append(resp.Data, countToResponse(&counts[i], s.loc))
	}
	resp.Positive, resp.Negative = differenceTally(counts)
	return resp, nil
}

func (s *inventoryService) ReportPDF(ctx context.Context, filter dto.InventoryFilter) ([]byte, error) {
	counts, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, ErrNoInventoryData
	}
	if s.render == nil {
		return nil, errors.New("inventory: PDF rendering is not configured")
	}
	return s.render(InventoryReportDocument(counts, filter, s.store, s.now().In(s.loc)))
}

func (s *inventoryService) find(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error) {
	c, err := s.counts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

// list turns the day-based filter into a half-open range in store time; "to"
// includes the whole day.
func (s *inventoryService) list(ctx context.Context, filter dto.InventoryFilter) ([]model.InventoryCount, error) {
	f := repository.InventoryFilter{UserName: strings.TrimSpace(filter.UserName)}
	if filter.From != "" {
		from, err := time.ParseInLocation("2006-01-02", filter.From, s.loc)
		if err != nil {
			return nil, newValidation("from", "use o formato AAAA-MM-DD")
		}
		f.From = from
	}
	if filter.To != "" {
		to, err := time.ParseInLocation("2006-01-02", filter.To, s.loc)
		if err != nil {
			return nil, newValidation("to", "use o formato AAAA-MM-DD")
		}
		f.To = to.AddDate(0, 0, 1)
	}
	if filter.ProductID != "" {
		id, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, newValidation("product_id", "identificador inválido")
		}
		f.ProductID = &id
	}
	return s.counts.ListCounts(ctx, f)
}

// InventoryReportDocument lays out the count report grouped by category, in
// the order the counts come in.
func InventoryReportDocument(counts []model.InventoryCount, filter dto.InventoryFilter, store StoreInfo, at time.Time) infra.ReportDocument {
	doc := infra.ReportDocument{
		Title:     "Relatório de Inventário",
		StoreName: store.Name,
		Header:    []infra.ReportRow{{Label: "Data", Value: at.Format(dateLayout)}},
		Footer:    []string{"CNPJ: " + store.CNPJ, "Sistema PDV InovaPro"},
	}
	if filter.UserName != "" {
		doc.Header = append(doc.Header, infra.ReportRow{Label: "Usuário", Value: filter.UserName})
	}
	if filter.From != "" || filter.To != "" {
		doc.Header = append(doc.Header, infra.ReportRow{Label: "Período", Value: periodLabel(filter.From, filter.To)})
	}

	pos, neg := differenceTally(counts)
	doc.Sections = append(doc.Sections, infra.ReportSection{
		Title: "Resumo Geral do Inventário",
		Rows: []infra.ReportRow{
			{Label: "Produtos contados", Value: strconv.Itoa(len(counts))},
			{Label: "Diferenças positivas", Value: strconv.Itoa(pos)},
			{Label: "Diferenças negativas", Value: strconv.Itoa(neg)},
		},
	})

	index := map[string]int{}
	for _, c := range counts {
		cat := c.Category
		if cat == "" {
			cat = defaultCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(doc.Sections)
			index[cat] = i
			doc.Sections = append(doc.Sections, infra.ReportSection{Title: cat, Note: "contada / estoque (diferença)"})
		}
		doc.Sections[i].Rows = append(doc.Sections[i].Rows, infra.ReportRow{
			Label: c.Name,
			Value: strconv.Itoa(c.CountedQty) + " / " + strconv.Itoa(c.StockQty) + " (" + signed(c.CountedQty-c.StockQty) + ")",
		})
	}
	return doc
}

func differenceTally(counts []model.InventoryCount) (positive, negative int) {
	for _, c := range counts {
		switch d := c.CountedQty - c.StockQty; {
		case d > 0:
			positive++
		case d < 0:
			negative++
		}
	}
	return positive, negative
}

func countCategory(requested, product *string) string {
	for _, c := range []*string{requested, product} {
		if c != nil && strings.TrimSpace(*c) != "" {
			return strings.TrimSpace(*c)
		}
	}
	return defaultCategory
}

func periodLabel(from, to string) string {
	day := func(s string) string {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t.Format(dateLayout)
		}
		return "..."
	}
	return day(from) + " a " + day(to)
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func countToResponse(c *model.InventoryCount, loc *time.Location) dto.InventoryCountResponse {
	return dto.InventoryCountResponse{
		ID:          c.ID.String(),
		ProductID:   c.ProductID.String(),
		Barcode:     c.Barcode,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		StockQty:    c.StockQty,
		CountedQty:  c.CountedQty,
		Difference:  c.Difference,
		UserName:    c.UserName,
		Closed:      c.Closed,
		CreatedAt:   c.CreatedAt.In(loc).Format(time.RFC3339),
	}
}
