package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"pdvinova/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// productTuple matches the leading columns of one products INSERT tuple:
// id, barcode|null, name, price, qty, unit, description|null.
var productTuple = regexp.MustCompile(`\('([^']*)',\s*('([^']*)'|null),\s*'([^']*)',\s*'([^']*)',\s*'([^']*)',\s*'([^']*)',\s*('([^']*)'|null)`)

const (
	importBatchSize = 50
	codeMarker      = "[codigo]"
)

// ParseResult reports what ParseProductDump kept and why the rest was dropped.
type ParseResult struct {
	Products   []model.Product `json:"-"`
	Parsed     int             `json:"parsed"`
	Filtered   int             `json:"filtered"`
	Invalid    int             `json:"invalid"`
	Duplicates int             `json:"duplicates"`
}

// ParseProductDump extracts products from a SQL dump. Only rows with a barcode
// or a "[codigo]" marker in the description are kept, deduplicated by barcode
// (by name when there is none).
func ParseProductDump(sql string) ParseResult {
	var res ParseResult
	barcodes := map[string]bool{}
	names := map[string]bool{}

	for _, m := range productTuple.FindAllStringSubmatch(sql, -1) {
		res.Parsed++
		barcode := strings.TrimSpace(m[3])
		name := m[4]
		var desc *string
		if m[8] != "null" {
			d := m[9]
			desc = &d
		}

		if barcode == "" && (desc == nil || !strings.Contains(*desc, codeMarker)) {
			res.Filtered++
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(m[5]))
		if err != nil {
			res.Invalid++
			continue
		}
		qty, err := parseQuantity(m[6])
		if err != nil {
			res.Invalid++
			continue
		}

		key := barcode
		if key == "" {
			key = name
		}
		if barcodes[key] || names[key] {
			res.Duplicates++
			continue
		}
		if barcode != "" {
			barcodes[barcode] = true
		}
		names[name] = true

		p := model.Product{
			Name:        name,
			Price:       price,
			StockQty:    qty,
			Unit:        m[7],
			Description: desc,
		}
		if barcode != "" {
			b := barcode
			p.Barcode = &b
		}
		res.Products = append(res.Products, p)
	}
	return res
}

// parseQuantity accepts "12" and "12.000", truncating like the old importer.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ProductWriter persists imported products.
type ProductWriter interface {
	Upsert(ctx context.Context, products []model.Product) error
}

// ImportResult counts the rows written and the rows that failed.
type ImportResult struct {
	ParseResult
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

type ImportService interface {
	Import(ctx context.Context, sql string) (*ImportResult, error)
}

type importService struct {
	products ProductWriter
	cache    LookupCache
	now      Clock
}

// cache may be nil; otherwise every cached lookup is flushed once rows land.
func NewImportService(products ProductWriter, cache LookupCache, now Clock) ImportService {
	if now == nil {
		now = systemClock
	}
	return &importService{products: products, cache: cache, now: now}
}

// Import upserts in batches; a failed batch is retried row by row so one bad
// row only costs itself.
func (s *importService) Import(ctx context.Context, sql string) (*ImportResult, error) {
	parsed := ParseProductDump(sql)
	res := &ImportResult{ParseResult: parsed}
	if len(parsed.Products) == 0 {
		return res, nil
	}

	// Also on a cancelled run: the batches already written are live.
	defer func() {
		if res.Imported > 0 && s.cache != nil {
			s.cache.Flush(context.WithoutCancel(ctx))
		}
	}()

	now := s.now()
	for i := range parsed.Products {
		parsed.Products[i].CreatedAt = now
		parsed.Products[i].UpdatedAt = now
	}

	for start := 0; start < len(parsed.Products); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := start + importBatchSize
		if end > len(parsed.Products) {
			end = len(parsed.Products)
		}
		batch := parsed.Products[start:end]
		err := s.products.Upsert(ctx, batch)
		if err == nil {
			res.Imported += len(batch)
			continue
		}
		log.Warn().Err(err).Int("batch", start/importBatchSize+1).Msg("import: batch failed, retrying row by row")
		for j := range batch {
			if err := s.products.Upsert(ctx, batch[j:j+1]); err != nil {
				res.Failed++
				log.Warn().Err(err).Str("product", batch[j].Name).Msg("import: row failed")
				continue
			}
			res.Imported++
		}
	}

	log.Info().
		Int("parsed", res.Parsed).
		Int("imported", res.Imported).
		Int("failed", res.Failed).
		Int("filtered", res.Filtered).
		Dur("elapsed", s.now().Sub(now)).
		Msg("import: finished")
	return res, nil
}
