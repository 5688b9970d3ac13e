package usecase

import (
	"context"
	"fmt"
	"time"

	"indicator_backend/internal/feature/indicators/domain"
	"indicator_backend/internal/feature/indicators/domain/entity"
)

// direction はカレンダー上を移動する向きです。
type direction int

const (
	backward direction = -1
	forward  direction = 1
)

func (d direction) String() string {
	if d == backward {
		return "backward"
	}
	return "forward"
}

// truncateDay は時刻部分を切り捨て、同じロケーションの0時に揃えます。
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// stepToTradingDay は date が取引日でない間、dir の向きに1日ずつ移動し、
// 最初に見つかった取引日を返します。date 自体が取引日ならそのまま返します。
// maxSteps 日移動しても取引日が無い場合は ErrNoTradingDay を返します。
func (u *IndicatorsUsecase) stepToTradingDay(date time.Time, dir direction) (time.Time, error) {
	for steps := 0; ; steps++ {
		if u.calendar.IsMarketOpen(date, entity.ResolutionDaily) {
			return date, nil
		}
		if steps >= u.maxSteps {
			return time.Time{}, fmt.Errorf("%w: walked %d days %s to %s",
				domain.ErrNoTradingDay, steps, dir, date.Format(time.DateOnly))
		}
		date = date.AddDate(0, 0, int(dir))
	}
}

// resolveTrailingWindow は anchor 直前の period 取引日を古い順に返します。
// period が 1 未満または maxPeriod を超える場合は ErrInvalidPeriod を返し、
// ctx が終了した時点で探索を打ち切ります。
//
// まず period 回「直前の取引日に寄せてから1日戻る」を繰り返してウィンドウの手前に出て、
// そこから period 回「直後の取引日に寄せて記録し、1日進む」を繰り返します。
// 最後の後退が休場日に着地した場合、前方への寄せによってウィンドウが1取引日後ろにずれ、
// anchor 当日を含むことがあります。この丸め挙動はそのまま維持しています。
func (u *IndicatorsUsecase) resolveTrailingWindow(ctx context.Context, anchor time.Time, period int) ([]time.Time, error) {
	if period < 1 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidPeriod, period)
	}
	if period > u.maxPeriod {
		return nil, fmt.Errorf("%w: got %d, max %d", domain.ErrInvalidPeriod, period, u.maxPeriod)
	}

	date := truncateDay(anchor)
	var err error
	for i := 0; i < period; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if date, err = u.stepToTradingDay(date, backward); err != nil {
			return nil, err
		}
		date = date.AddDate(0, 0, -1)
	}

	dates := make([]time.Time, 0, period)
	for i := 0; i < period; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if date, err = u.stepToTradingDay(date, forward); err != nil {
			return nil, err
		}
		dates = append(dates, date)
		date = date.AddDate(0, 0, 1)
	}
	return dates, nil
}

// fetchPrices は dates の各日付について価格を取得します。
// 価格が存在しない日付は結果から除外されます（エラーにもゼロ埋めにもしない）。
func (u *IndicatorsUsecase) fetchPrices(ctx context.Context, symbol string, dates []time.Time) (entity.PriceWindow, error) {
	window := make(entity.PriceWindow, 0, len(dates))
	for slot, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		price, ok, err := u.prices.Price(ctx, symbol, d)
		if err != nil {
			return nil, fmt.Errorf("fetch price %s %s: %w", symbol, d.Format(time.DateOnly), err)
		}
		if !ok {
			continue
		}
		window = append(window, entity.PricePoint{Slot: slot, Date: d, Price: price})
	}
	return window, nil
}

// trailingPrices はウィンドウ解決と価格取得をまとめて行います。
func (u *IndicatorsUsecase) trailingPrices(ctx context.Context, symbol string, anchor time.Time, period int) ([]time.Time, entity.PriceWindow, error) {
	dates, err := u.resolveTrailingWindow(ctx, anchor, period)
	if err != nil {
		return nil, nil, err
	}
	window, err := u.fetchPrices(ctx, symbol, dates)
	if err != nil {
		return nil, nil, err
	}
	return dates, window, nil
}
