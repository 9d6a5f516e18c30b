package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	productCacheTTL    = 4 * time.Hour
	productCachePrefix = "produto:"
)

// ProductCache keeps barcode lookups in Redis under produto:<barcode>.
// A nil *ProductCache is valid and caches nothing.
type ProductCache struct {
	rdb *redis.Client
}

// NewProductCache returns nil when rdb is nil.
func NewProductCache(rdb *redis.Client) *ProductCache {
	if rdb == nil {
		return nil
	}
	return &ProductCache{rdb: rdb}
}

// Get decodes the cached lookup into dest and reports whether it was found.
func (c *ProductCache) Get(ctx context.Context, barcode string, dest interface{}) bool {
	if c == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, productCachePrefix+barcode).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

// Set is best effort.
func (c *ProductCache) Set(ctx context.Context, barcode string, v interface{}) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productCachePrefix+barcode, b, productCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("barcode", barcode).Msg("products: cache write failed")
	}
}

// Drop removes the lookups of the given barcodes.
func (c *ProductCache) Drop(ctx context.Context, barcodes ...string) {
	if c == nil || len(barcodes) == 0 {
		return
	}
	keys := make([]string, 0, len(barcodes))
	for _, b := range barcodes {
		keys = append(keys, productCachePrefix+b)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("barcodes", barcodes).Msg("products: cache invalidation failed")
	}
}

// Flush removes every cached lookup.
func (c *ProductCache) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, productCachePrefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("products: cache scan failed")
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Warn().Err(err).Msg("products: cache flush failed")
		}
	}
}
