// Package cache provides Redis-backed decorators for price lookups.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	candleentity "indicator_backend/internal/feature/candles/domain/entity"
	candleusecase "indicator_backend/internal/feature/candles/usecase"
	"indicator_backend/internal/feature/indicators/usecase"
)

const (
	defaultNamespace = "prices"
	defaultTTL       = 5 * time.Minute
)

// TTLFunc はキャッシュ書き込み時点の時刻から有効期限を決めます。
type TTLFunc func(now time.Time) time.Duration

// FixedTTL は常に d を返す TTLFunc です。
func FixedTTL(d time.Duration) TTLFunc {
	return func(time.Time) time.Duration { return d }
}

// UntilNextRefresh は次の取り込み時刻（loc の hour 時）まで有効な TTLFunc です。
func UntilNextRefresh(hour int, loc *time.Location) TTLFunc {
	return func(now time.Time) time.Duration {
		return TimeUntilNextRefresh(now, hour, loc)
	}
}

// cachedPrice is the stored form; absent days are cached too.
type cachedPrice struct {
	Price float64 `json:"price"`
	OK    bool    `json:"ok"`
}

// CachingPriceSource decorates a PriceSource with Redis caching.
// A nil client turns it into a passthrough.
type CachingPriceSource struct {
	inner     usecase.PriceSource
	rdb       *redis.Client
	ttl       TTLFunc
	namespace string
}

var _ usecase.PriceSource = (*CachingPriceSource)(nil)

// NewCachingPriceSource decorates inner with Redis caching.
// If ttl is nil, entries live for 5 minutes. If namespace is empty, it uses "prices".
func NewCachingPriceSource(rdb *redis.Client, ttl TTLFunc, inner usecase.PriceSource, namespace string) *CachingPriceSource {
	if ttl == nil {
		ttl = FixedTTL(defaultTTL)
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingPriceSource{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Price returns the cached lookup for (symbol, date) or falls back to inner.
// Errors from inner are never cached.
func (c *CachingPriceSource) Price(ctx context.Context, symbol string, date time.Time) (float64, bool, error) {
	if c.rdb == nil {
		return c.inner.Price(ctx, symbol, date)
	}

	key := c.cacheKey(symbol, date)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var hit cachedPrice
		if err := json.Unmarshal(b, &hit); err == nil {
			return hit.Price, hit.OK, nil
		}
		// 破損したエントリは削除して取り直す
		_ = c.rdb.Del(ctx, key).Err()
	}

	price, ok, err := c.inner.Price(ctx, symbol, date)
	if err != nil {
		return 0, false, err
	}

	if ttl := c.ttl(c.inner.Now()); ttl > 0 {
		if b, err := json.Marshal(cachedPrice{Price: price, OK: ok}); err == nil {
			_ = c.rdb.Set(ctx, key, b, ttl).Err()
		}
	}
	return price, ok, nil
}

// Now delegates to the wrapped source.
func (c *CachingPriceSource) Now() time.Time {
	return c.inner.Now()
}

// Invalidate removes every cached day of symbol.
func (c *CachingPriceSource) Invalidate(ctx context.Context, symbol string) error {
	if c.rdb == nil {
		return nil
	}
	return deleteByPattern(ctx, c.rdb, c.cacheKeyPrefix(symbol)+"*")
}

func (c *CachingPriceSource) cacheKey(symbol string, date time.Time) string {
	return c.cacheKeyPrefix(symbol) + date.Format(time.DateOnly)
}

func (c *CachingPriceSource) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// InvalidatingCandleRepository drops cached prices of every symbol it upserts,
// so a fresh ingest is visible before the cached entries expire.
type InvalidatingCandleRepository struct {
	inner candleusecase.CandleRepository
	cache *CachingPriceSource
}

var _ candleusecase.CandleRepository = (*InvalidatingCandleRepository)(nil)

// NewInvalidatingCandleRepository wraps inner.
func NewInvalidatingCandleRepository(inner candleusecase.CandleRepository, cache *CachingPriceSource) *InvalidatingCandleRepository {
	return &InvalidatingCandleRepository{inner: inner, cache: cache}
}

// UpsertBatch upserts candles, then invalidates each affected symbol once.
func (r *InvalidatingCandleRepository) UpsertBatch(ctx context.Context, candles []candleentity.Candle) error {
	if err := r.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if r.cache == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		if _, ok := seen[cd.Symbol]; ok {
			continue
		}
		seen[cd.Symbol] = struct{}{}
		_ = r.cache.Invalidate(ctx, cd.Symbol) // best effort
	}
	return nil
}

// deleteByPattern deletes all keys matching pattern using SCAN.
func deleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
