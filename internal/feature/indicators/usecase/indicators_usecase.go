// Package usecase はテクニカル指標（SMA, WMA, EMA, MACD, 標準偏差）の計算ロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"indicator_backend/internal/feature/indicators/domain"
	"indicator_backend/internal/feature/indicators/domain/entity"
)

const (
	// DefaultSmoothing はEMAの平滑化係数のデフォルト値です。
	DefaultSmoothing = 2.0
	// DefaultMaxCalendarSteps は取引日を探す際に移動する最大日数です。
	DefaultMaxCalendarSteps = 366
	// DefaultMaxPeriod は受け付ける期間（取引日数）の上限です。約10年分。
	DefaultMaxPeriod = 2520

	macdFastPeriod = 12
	macdSlowPeriod = 26
)

// PriceSource は銘柄・日付から価格を引くデータソースを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceSource interface {
	// Price は指定日の価格を返します。価格が無い日は ok=false を返します。
	Price(ctx context.Context, symbol string, date time.Time) (price float64, ok bool, err error)
	// Now はアンカー日付が省略されたときに使う現在時刻を返します。
	Now() time.Time
}

// MarketCalendar は市場の営業日を判定するカレンダーを抽象化します。
type MarketCalendar interface {
	IsMarketOpen(date time.Time, res entity.Resolution) bool
}

// IndicatorsUsecase はテクニカル指標の計算を提供します。
// 内部状態を持たないため、依存先が並行読み取りに安全であれば並行に呼び出せます。
type IndicatorsUsecase struct {
	prices    PriceSource
	calendar  MarketCalendar
	maxSteps  int
	maxPeriod int
}

// Option は IndicatorsUsecase の設定を変更します。
type Option func(*IndicatorsUsecase)

// WithMaxCalendarSteps は取引日探索の上限日数を設定します。0以下は無視されます。
func WithMaxCalendarSteps(n int) Option {
	return func(u *IndicatorsUsecase) {
		if n > 0 {
			u.maxSteps = n
		}
	}
}

// WithMaxPeriod は期間の上限を設定します。0以下は無視されます。
func WithMaxPeriod(n int) Option {
	return func(u *IndicatorsUsecase) {
		if n > 0 {
			u.maxPeriod = n
		}
	}
}

// NewIndicatorsUsecase は新しい IndicatorsUsecase を作成します。
func NewIndicatorsUsecase(prices PriceSource, calendar MarketCalendar, opts ...Option) *IndicatorsUsecase {
	u := &IndicatorsUsecase{
		prices:    prices,
		calendar:  calendar,
		maxSteps:  DefaultMaxCalendarSteps,
		maxPeriod: DefaultMaxPeriod,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// anchorOrNow はゼロ値の日付をデータソースの現在時刻で置き換えます。
func (u *IndicatorsUsecase) anchorOrNow(date time.Time) time.Time {
	if date.IsZero() {
		return u.prices.Now()
	}
	return date
}

// SMA は date 直前の period 取引日の単純移動平均を返します。
func (u *IndicatorsUsecase) SMA(ctx context.Context, symbol string, period int, date time.Time) (float64, error) {
	_, window, err := u.trailingPrices(ctx, symbol, u.anchorOrNow(date), period)
	if err != nil {
		return 0, err
	}
	if len(window) == 0 {
		return 0, fmt.Errorf("sma %s(%d): %w", symbol, period, domain.ErrEmptyWindow)
	}

	var sum float64
	for _, p := range window {
		sum += p.Price
	}
	return sum / float64(len(window)), nil
}

// WMA は加重移動平均を返します。i 番目（古い方から1始まり）の取引日の重みは i / Σ(1..period) です。
// 価格が欠けた日は価格と重みの両方を除外し、残りの重みは再正規化しません。
func (u *IndicatorsUsecase) WMA(ctx context.Context, symbol string, period int, date time.Time) (float64, error) {
	_, window, err := u.trailingPrices(ctx, symbol, u.anchorOrNow(date), period)
	if err != nil {
		return 0, err
	}
	if len(window) == 0 {
		return 0, fmt.Errorf("wma %s(%d): %w", symbol, period, domain.ErrEmptyWindow)
	}

	weightTotal := float64(period*(period+1)) / 2
	var wma float64
	for _, p := range window {
		wma += p.Price * float64(p.Slot+1) / weightTotal
	}
	return wma, nil
}

// EMA は指数移動平均を返します。
//
// 初期値は対象ウィンドウの直前 period 取引日のSMAです。そこから対象ウィンドウを1取引日ずつ進め、
// ema = price*multiplier + ema*(1-multiplier) で更新します。価格の無い日は ema を据え置きます。
// smoothing が0以下の場合は DefaultSmoothing を使います。
func (u *IndicatorsUsecase) EMA(ctx context.Context, symbol string, period int, date time.Time, smoothing float64) (float64, error) {
	if smoothing <= 0 {
		smoothing = DefaultSmoothing
	}
	dates, window, err := u.trailingPrices(ctx, symbol, u.anchorOrNow(date), period)
	if err != nil {
		return 0, err
	}

	ema, err := u.SMA(ctx, symbol, period, dates[0])
	if err != nil {
		return 0, fmt.Errorf("ema seed: %w", err)
	}

	multiplier := smoothing / float64(period+1)
	for _, p := range window {
		ema = p.Price*multiplier + ema*(1-multiplier)
	}
	return ema, nil
}

// MACD は EMA(12) - EMA(26) を返します。
func (u *IndicatorsUsecase) MACD(ctx context.Context, symbol string, date time.Time) (float64, error) {
	date = u.anchorOrNow(date)

	fast, err := u.EMA(ctx, symbol, macdFastPeriod, date, DefaultSmoothing)
	if err != nil {
		return 0, fmt.Errorf("macd fast: %w", err)
	}
	slow, err := u.EMA(ctx, symbol, macdSlowPeriod, date, DefaultSmoothing)
	if err != nil {
		return 0, fmt.Errorf("macd slow: %w", err)
	}
	return fast - slow, nil
}

// StdDev はEMAを中心とした母集団標準偏差を返します。
// 同じ直近ウィンドウの各価格とEMAとの差の二乗を平均し、その平方根を取ります。
func (u *IndicatorsUsecase) StdDev(ctx context.Context, symbol string, period int, date time.Time, smoothing float64) (float64, error) {
	date = u.anchorOrNow(date)

	ema, err := u.EMA(ctx, symbol, period, date, smoothing)
	if err != nil {
		return 0, err
	}
	_, window, err := u.trailingPrices(ctx, symbol, date, period)
	if err != nil {
		return 0, err
	}
	if len(window) == 0 {
		return 0, fmt.Errorf("stddev %s(%d): %w", symbol, period, domain.ErrEmptyWindow)
	}

	var variance float64
	for _, p := range window {
		diff := p.Price - ema
		variance += diff * diff
	}
	variance /= float64(len(window))
	return math.Sqrt(variance), nil
}

// Compute はリクエストの種類に応じた指標を1つ計算します。
func (u *IndicatorsUsecase) Compute(ctx context.Context, req entity.Request) (entity.Result, error) {
	if !req.Kind.Valid() {
		return entity.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownIndicator, req.Kind)
	}

	anchor := truncateDay(u.anchorOrNow(req.Date))
	res := entity.Result{Symbol: req.Symbol, Kind: req.Kind, Period: req.Period, Date: anchor}

	var (
		v   float64
		err error
	)
	switch req.Kind {
	case entity.KindSMA:
		v, err = u.SMA(ctx, req.Symbol, req.Period, anchor)
	case entity.KindWMA:
		v, err = u.WMA(ctx, req.Symbol, req.Period, anchor)
	case entity.KindEMA:
		v, err = u.EMA(ctx, req.Symbol, req.Period, anchor, req.Smoothing)
	case entity.KindMACD:
		res.Period = macdSlowPeriod
		v, err = u.MACD(ctx, req.Symbol, anchor)
	case entity.KindStdDev:
		v, err = u.StdDev(ctx, req.Symbol, req.Period, anchor, req.Smoothing)
	}
	if err != nil {
		return entity.Result{}, err
	}
	res.Value = v
	return res, nil
}

// Snapshot は全指標を同じアンカー日付で計算します。
// 個々の指標の失敗は Errors に記録し、他の指標の計算は続行します。
// ウィンドウ解決自体が不可能な場合（期間不正・取引日なし）はエラーを返します。
func (u *IndicatorsUsecase) Snapshot(ctx context.Context, symbol string, period int, date time.Time) (entity.Snapshot, error) {
	anchor := truncateDay(u.anchorOrNow(date))
	if _, err := u.resolveTrailingWindow(ctx, anchor, period); err != nil {
		return entity.Snapshot{}, err
	}

	snap := entity.Snapshot{
		Symbol: symbol,
		Period: period,
		Date:   anchor,
		Values: make(map[entity.Kind]float64, len(entity.Kinds)),
		Errors: map[entity.Kind]string{},
	}
	for _, kind := range entity.Kinds {
		res, err := u.Compute(ctx, entity.Request{Symbol: symbol, Kind: kind, Period: period, Date: anchor})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return entity.Snapshot{}, err
			}
			snap.Errors[kind] = err.Error()
			continue
		}
		snap.Values[kind] = res.Value
	}
	return snap, nil
}
