// Package adapters は指標計算で使うデータソースの実装を提供します。
package adapters

import (
	"context"
	"time"

	candleentity "indicator_backend/internal/feature/candles/domain/entity"
	"indicator_backend/internal/feature/indicators/usecase"
)

// CandleFinder は指定日のローソク足を1件引くリポジトリです。
type CandleFinder interface {
	FindOn(ctx context.Context, symbol, interval string, day time.Time) (candleentity.Candle, bool, error)
}

// CandlePriceSource は保存済みの日足の終値を指標計算の価格として返します。
type CandlePriceSource struct {
	candles CandleFinder
	now     func() time.Time
}

var _ usecase.PriceSource = (*CandlePriceSource)(nil)

// NewCandlePriceSource は CandlePriceSource を生成します。now が nil の場合は time.Now を使います。
func NewCandlePriceSource(candles CandleFinder, now func() time.Time) *CandlePriceSource {
	if now == nil {
		now = time.Now
	}
	return &CandlePriceSource{candles: candles, now: now}
}

// Price は date の日足終値を返します。日足が無い日は ok=false です。
func (s *CandlePriceSource) Price(ctx context.Context, symbol string, date time.Time) (float64, bool, error) {
	c, ok, err := s.candles.FindOn(ctx, symbol, candleentity.IntervalDaily, date)
	if err != nil || !ok {
		return 0, false, err
	}
	return c.Close, true, nil
}

// Now は現在時刻を返します。
func (s *CandlePriceSource) Now() time.Time {
	return s.now()
}
