// Package usecase は外部APIからローソク足を取り込み、指標計算用に永続化するロジックを実装します。
package usecase

import (
	"context"
	"log/slog"

	"indicator_backend/internal/feature/candles/domain/entity"
)

// DefaultOutputSize は1回のリクエストで取得するデータ件数です。
const DefaultOutputSize = 400

// CandleRepository はローソク足データの書き込みレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
}

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// Limiter は外部APIの呼び出し頻度を制御します。
type Limiter interface {
	Wait(ctx context.Context) error
}

// IngestUsecase は外部APIから日足を取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market     MarketRepository
	candle     CandleRepository
	limiter    Limiter
	outputSize int
}

// NewIngestUsecase は新しい IngestUsecase を作成します。outputSize が0以下なら DefaultOutputSize を使います。
func NewIngestUsecase(market MarketRepository, candle CandleRepository, limiter Limiter, outputSize int) *IngestUsecase {
	if outputSize <= 0 {
		outputSize = DefaultOutputSize
	}
	return &IngestUsecase{market: market, candle: candle, limiter: limiter, outputSize: outputSize}
}

// ingestOne は指定銘柄の日足を外部リポジトリから取得し、一括で挿入（または更新）します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol string) (int, error) {
	cs, err := iu.market.GetTimeSeries(ctx, symbol, entity.IntervalDaily, iu.outputSize)
	if err != nil {
		return 0, err
	}

	// 取得したデータに銘柄コードと時間足を設定
	for i := range cs {
		cs[i].Symbol = symbol
		cs[i].Interval = entity.IntervalDaily
	}
	if err := iu.candle.UpsertBatch(ctx, cs); err != nil {
		return 0, err
	}
	return len(cs), nil
}

// IngestAll は指定された全銘柄の日足を取得して永続化し、成功した銘柄数を返します。
// 1銘柄の失敗はログに残して次へ進みます。レートリミッタの待機が中断された場合
// （コンテキストのキャンセル等）はその時点でエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (int, error) {
	ok := 0
	for _, s := range symbols {
		if err := iu.limiter.Wait(ctx); err != nil {
			return ok, err
		}
		n, err := iu.ingestOne(ctx, s)
		if err != nil {
			slog.Error("failed to ingest data", "symbol", s, "interval", entity.IntervalDaily, "error", err)
			continue
		}
		slog.Info("ingested candles", "symbol", s, "count", n)
		ok++
	}
	return ok, nil
}
