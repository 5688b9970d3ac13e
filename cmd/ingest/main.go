package main

import (
	"context"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	redisv9 "github.com/redis/go-redis/v9"

	"indicator_backend/internal/app/di"
	"indicator_backend/internal/platform/config"
	"indicator_backend/internal/platform/db"
	"indicator_backend/internal/platform/logger"
	infraredis "indicator_backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init("indicator-ingest", logger.ParseLevel(cfg.LogLevel))

	gdb, err := db.OpenDB()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// 取り込んだ銘柄の価格キャッシュを消すためだけに Redis を使う
	var rdb *redisv9.Client
	if rcfg := infraredis.LoadConfigFromEnv(); rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(context.Background(), rcfg); err == nil {
			rdb = tmp
			defer func() { _ = rdb.Close() }()
		}
	}

	prices := di.NewPriceSource(gdb, rdb, cfg, nil)
	uc := di.NewIngestUsecase(gdb, di.NewMarket(), prices, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// INGEST_SYMBOLS が空なら symbols テーブルのアクティブ銘柄を取り込む
	symbols, err := di.NewSymbolUsecase(gdb).IngestTargets(ctx, cfg.IngestSymbols)
	if err != nil {
		slog.Error("failed to list ingest targets", "error", err)
		os.Exit(1)
	}
	if len(symbols) == 0 {
		slog.Warn("no symbols to ingest")
		return
	}

	n, err := uc.IngestAll(ctx, symbols)
	if err != nil {
		slog.Error("ingest aborted", "ingested", n, "error", err)
		os.Exit(1)
	}
	slog.Info("ingest ok", "ingested", n, "symbols", len(symbols))
}
