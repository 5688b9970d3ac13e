package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"indicator_backend/internal/feature/candles/domain/entity"
	"indicator_backend/internal/feature/candles/usecase"
	"indicator_backend/internal/platform/externalapi/twelvedata/dto"
)

// ErrRateLimited は API のクレジット上限に達したことを表します。
var ErrRateLimited = errors.New("twelvedata: rate limited")

// APIError は HTTP ステータスまたはレスポンス本文で報告されたエラーです。
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("twelvedata http %d", e.Code)
	}
	return fmt.Sprintf("twelvedata %d: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrRateLimited) match a 429.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.Code == http.StatusTooManyRequests
}

// Market はTwelve Dataから日足などの時系列を取得するMarketRepository実装です。
type Market struct {
	cfg    Config
	client *http.Client
}

var _ usecase.MarketRepository = (*Market)(nil)

// NewMarket は Market を生成します。
func NewMarket(cfg Config, client *http.Client) *Market {
	return &Market{cfg: cfg, client: client}
}

// GetTimeSeries は time_series エンドポイントを呼び出し、ローソク足に変換して返します。
// 日付のみの datetime は UTC の0時として扱います。時刻付きの datetime は取引所のタイムゾーンで解釈します。
func (m *Market) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(outputsize))
	q.Set("apikey", m.cfg.APIKey)

	u := fmt.Sprintf("%s/time_series?%s", m.cfg.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, &APIError{Code: res.StatusCode}
	}

	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("twelvedata: decode: %w", err)
	}
	if body.Status == "error" {
		return nil, &APIError{Code: body.Code, Message: body.Message}
	}

	loc := time.UTC
	if body.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(body.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	candles := make([]entity.Candle, 0, len(body.Values))
	for _, v := range body.Values {
		c, err := toCandle(v, loc)
		if err != nil {
			return nil, err
		}
		c.Symbol = symbol
		c.Interval = interval
		candles = append(candles, c)
	}
	return candles, nil
}

func toCandle(v dto.TimeSeriesValue, loc *time.Location) (entity.Candle, error) {
	tm, err := time.ParseInLocation(time.DateTime, v.Datetime, loc)
	if err != nil {
		tm, err = time.Parse(time.DateOnly, v.Datetime)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse time %q: %w", v.Datetime, err)
		}
	}

	var c entity.Candle
	c.Time = tm
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", v.Open, &c.Open},
		{"high", v.High, &c.High},
		{"low", v.Low, &c.Low},
		{"close", v.Close, &c.Close},
	}
	for _, f := range fields {
		n, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = n
	}

	if v.Volume != "" {
		vol, err := strconv.ParseInt(v.Volume, 10, 64)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
		c.Volume = vol
	}
	return c, nil
}
