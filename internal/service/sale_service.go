package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"pdvinova/internal/dto"
	"pdvinova/internal/model"
	"pdvinova/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Register(ctx context.Context, req dto.RegisterSaleRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

// LookupCache holds barcode lookups that carry price and stock.
type LookupCache interface {
	Drop(ctx context.Context, barcodes ...string)
	Flush(ctx context.Context)
}

type saleService struct {
	repo     repository.SaleRepository
	products repository.ProductRepository
	counts   repository.InventoryRepository
	cache    LookupCache
	loc      *time.Location
	now      Clock
}

// counts and cache may be nil.
func NewSaleService(repo repository.SaleRepository, products repository.ProductRepository, counts repository.InventoryRepository, cache LookupCache, loc *time.Location, now Clock) SaleService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = systemClock
	}
	return &saleService{repo: repo, products: products, counts: counts, cache: cache, loc: loc, now: now}
}

// ── Register ──────────────────────────────────────────────────────────────────
//   1. Resolve catalog products and validate everything (no writes yet)
//   2. BEGIN TX: sale + items, decrement stock, one saida movement per item,
//      take the units off the product's open inventory count
//   3. COMMIT, then drop the cached lookups of the sold products

func (s *saleService) Register(ctx context.Context, req dto.RegisterSaleRequest) (*dto.SaleResponse, error) {
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return nil, newValidation("worker_id", "identificador inválido")
	}

	fields := map[string]string{}
	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		fields["payment_method"] = "forma de pagamento inválida"
	}
	var brand *string
	if ok && method.IsCard() {
		if brand = saleBrand(req.PaymentMethod, req.CardBrand); brand == nil {
			fields["card_brand"] = "bandeira obrigatória para pagamento com cartão"
		}
	}
	if len(req.Items) == 0 {
		fields["items"] = "a venda precisa de ao menos um item"
	}

	items, catalog, err := s.resolveItems(ctx, req.Items, fields)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}

	var change *decimal.Decimal
	if ok && method == model.PaymentCash {
		switch {
		case req.AmountReceived == nil:
			fields["amount_received"] = "valor recebido obrigatório para pagamento em dinheiro"
		case req.AmountReceived.LessThan(total):
			fields["amount_received"] = "valor recebido menor que o total"
		default:
			c := req.AmountReceived.Sub(total)
			change = &c
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	now := s.now().Truncate(time.Microsecond)
	sale := model.Sale{
		UserID:        workerID,
		Total:         total,
		PaymentMethod: method,
		CardBrand:     brand,
		Change:        change,
		CreatedAt:     now,
		Items:         items,
	}
	if method == model.PaymentCash {
		sale.AmountReceived = req.AmountReceived
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &sale); err != nil {
			return err
		}
		for _, it := range sale.Items {
			if it.ProductID == nil {
				continue
			}
			if err := s.products.AdjustStock(ctx, tx, *it.ProductID, -it.Quantity); err != nil {
				return err
			}
			saleID := sale.ID
			mov := &model.StockMovement{
				ProductID: *it.ProductID,
				UserID:    &workerID,
				Type:      model.MovementOut,
				Quantity:  -it.Quantity,
				RefID:     &saleID,
				CreatedAt: now,
			}
			if err := s.products.CreateMovement(ctx, tx, mov); err != nil {
				return err
			}
			if s.counts != nil {
				if err := s.counts.ApplySale(ctx, tx, *it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dropLookups(ctx, catalog)

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("worker_id", workerID.String()).
		Str("method", string(method)).
		Str("total", total.StringFixed(2)).
		Msg("sale: registered")
	resp := saleToResponse(&sale, s.loc)
	return &resp, nil
}

// saleBrand picks the explicit brand, or the one embedded in a brand-qualified
// method such as "visa_credito".
func saleBrand(rawMethod string, explicit *string) *string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		b := model.NormalizeCardBrand(*explicit)
		return &b
	}
	m := strings.ToLower(strings.TrimSpace(rawMethod))
	if strings.HasPrefix(m, "cartao_") {
		return nil
	}
	b := model.NormalizeCardBrand(m)
	if pm, isMethod := model.ParsePaymentMethod(b); b == "" || (isMethod && string(pm) == b) {
		return nil
	}
	return &b
}

// dropLookups invalidates by catalog barcode; the code on a sale item may come
// from the request.
func (s *saleService) dropLookups(ctx context.Context, catalog map[uuid.UUID]model.Product) {
	if s.cache == nil {
		return
	}
	var barcodes []string
	for _, p := range catalog {
		if p.Barcode != nil && *p.Barcode != "" {
			barcodes = append(barcodes, *p.Barcode)
		}
	}
	if len(barcodes) > 0 {
		s.cache.Drop(ctx, barcodes...)
	}
}

// resolveItems builds sale items, taking name and price from the catalog when
// a product id is given. Problems are added to fields. The returned catalog
// holds the products referenced by the request.
func (s *saleService) resolveItems(ctx context.Context, reqItems []dto.SaleItemRequest, fields map[string]string) ([]model.SaleItem, map[uuid.UUID]model.Product, error) {
	var ids []uuid.UUID
	for _, it := range reqItems {
		if it.ProductID == nil {
			continue
		}
		if id, err := uuid.Parse(*it.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	catalog := map[uuid.UUID]model.Product{}
	if len(ids) > 0 {
		var err error
		catalog, err = s.products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
	}

	items := make([]model.SaleItem, 0, len(reqItems))
	for i, it := range reqItems {
		key := "items[" + strconv.Itoa(i) + "]"
		if it.Quantity <= 0 {
			fields[key+".quantity"] = "quantidade deve ser maior que zero"
			continue
		}
		item := model.SaleItem{Quantity: it.Quantity, ProductCode: it.ProductCode}

		if it.ProductID != nil {
			id, err := uuid.Parse(*it.ProductID)
			if err != nil {
				fields[key+".product_id"] = "identificador inválido"
				continue
			}
			p, found := catalog[id]
			if !found {
				fields[key+".product_id"] = "produto não encontrado"
				continue
			}
			item.ProductID = &id
			item.ProductName = p.Name
			item.UnitPrice = p.Price
			if item.ProductCode == nil {
				item.ProductCode = p.Barcode
			}
		} else {
			if strings.TrimSpace(it.Name) == "" {
				fields[key+".name"] = "nome obrigatório para item avulso"
				continue
			}
			if it.UnitPrice == nil {
				fields[key+".unit_price"] = "preço obrigatório para item avulso"
				continue
			}
			item.ProductName = strings.TrimSpace(it.Name)
			item.UnitPrice = *it.UnitPrice
		}
		if item.UnitPrice.IsNegative() {
			fields[key+".unit_price"] = "preço não pode ser negativo"
			continue
		}
		items = append(items, item)
	}
	return items, catalog, nil
}

// ── Cancel / List ─────────────────────────────────────────────────────────────

func (s *saleService) Cancel(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.Delete(ctx, tx, id)
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	log.Info().Str("sale_id", id.String()).Msg("sale: cancelled")
	return nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	f := repository.SaleFilter{Limit: filter.Limit}
	if filter.WorkerID != "" {
		id, err := uuid.Parse(filter.WorkerID)
		if err != nil {
			return nil, newValidation("worker_id", "identificador inválido")
		}
		f.UserID = &id
	}
	if filter.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", filter.Date, s.loc)
		if err != nil {
			return nil, newValidation("date", "use o formato AAAA-MM-DD")
		}
		f.From, f.To = day, day.AddDate(0, 0, 1)
	}

	sales, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{Data: make([]dto.SaleResponse, 0, len(sales)), Total: len(sales)}
	for i := range sales {
		resp.Data = append(resp.Data, saleToResponse(&sales[i], s.loc))
	}
	return resp, nil
}

func saleToResponse(s *model.Sale, loc *time.Location) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:             s.ID.String(),
		WorkerID:       s.UserID.String(),
		Total:          s.Total,
		PaymentMethod:  string(s.PaymentMethod),
		CardBrand:      s.CardBrand,
		AmountReceived: s.AmountReceived,
		Change:         s.Change,
		Items:          make([]dto.SaleItemResponse, 0, len(s.Items)),
		CreatedAt:      s.CreatedAt.In(loc).Format(time.RFC3339),
	}
	for _, it := range s.Items {
		item := dto.SaleItemResponse{
			ProductCode: it.ProductCode,
			Name:        it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal(),
		}
		if it.ProductID != nil {
			id := it.ProductID.String()
			item.ProductID = &id
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
