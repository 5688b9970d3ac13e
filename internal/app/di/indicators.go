package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	candleadapters "indicator_backend/internal/feature/candles/adapters"
	candleusecase "indicator_backend/internal/feature/candles/usecase"
	indicatoradapters "indicator_backend/internal/feature/indicators/adapters"
	symboladapters "indicator_backend/internal/feature/symbollist/adapters"
	symbolhandler "indicator_backend/internal/feature/symbollist/transport/handler"
	symbolusecase "indicator_backend/internal/feature/symbollist/usecase"
	"indicator_backend/internal/feature/indicators/transport/handler"
	"indicator_backend/internal/feature/indicators/usecase"
	"indicator_backend/internal/platform/cache"
	"indicator_backend/internal/platform/calendar"
	"indicator_backend/internal/platform/config"
	platformhandler "indicator_backend/internal/platform/http/handler"
	"indicator_backend/internal/shared/ratelimiter"
)

// NewCalendar loads the holiday calendar from cfg.CalendarFile.
// Without a file only weekends are closed.
func NewCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	if cfg.CalendarFile == "" {
		return calendar.New(time.UTC, calendar.DefaultSession, nil)
	}
	return calendar.Load(cfg.CalendarFile)
}

// NewPriceSource returns the candle-backed price source, cached in Redis when rdb is set.
func NewPriceSource(db *gorm.DB, rdb *redis.Client, cfg *config.Config, now func() time.Time) *cache.CachingPriceSource {
	prices := indicatoradapters.NewCandlePriceSource(candleadapters.NewCandleRepository(db), now)
	ttl := cache.UntilNextRefresh(cfg.CacheRefreshHour, cfg.CacheTimezone)
	return cache.NewCachingPriceSource(rdb, ttl, prices, "prices")
}

// NewIndicatorsHandler wires price source, calendar and usecase into the HTTP handler.
func NewIndicatorsHandler(prices usecase.PriceSource, cal usecase.MarketCalendar, cfg *config.Config, rec handler.Recorder) *handler.IndicatorsHandler {
	uc := usecase.NewIndicatorsUsecase(prices, cal, usecase.WithMaxCalendarSteps(cfg.MaxCalendarSteps))
	return handler.NewIndicatorsHandler(uc, rec)
}

// NewIngestUsecase wires the Twelve Data client, the candle repository and
// the rate limiter. Upserted symbols have their cached prices dropped.
func NewIngestUsecase(db *gorm.DB, market candleusecase.MarketRepository, prices *cache.CachingPriceSource, cfg *config.Config) *candleusecase.IngestUsecase {
	repo := cache.NewInvalidatingCandleRepository(candleadapters.NewCandleRepository(db), prices)
	limiter := ratelimiter.NewRateLimiter("twelvedata", cfg.IngestRatePerMin, time.Minute)
	return candleusecase.NewIngestUsecase(market, repo, limiter, cfg.IngestOutputSize)
}

// NewSymbolUsecase wires the gorm symbol repository.
func NewSymbolUsecase(db *gorm.DB) *symbolusecase.SymbolUsecase {
	return symbolusecase.NewSymbolUsecase(symboladapters.NewSymbolRepository(db))
}

// NewSymbolHandler serves the tracked-symbol list.
func NewSymbolHandler(db *gorm.DB) *symbolhandler.SymbolHandler {
	return symbolhandler.NewSymbolHandler(NewSymbolUsecase(db))
}

// NewHealthHandler checks the database and, when configured, Redis.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *platformhandler.HealthHandler {
	checks := map[string]platformhandler.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return platformhandler.NewHealthHandler(checks)
}
