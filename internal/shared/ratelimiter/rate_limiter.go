// Package ratelimiter throttles calls to rate-limited upstream APIs.
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter は一定時間あたりの呼び出し回数を制限します。
type RateLimiter struct {
	limiter *rate.Limiter
	name    string
}

// NewRateLimiter は interval あたり limit 回まで許可するRateLimiterを生成します。
// バーストは limit 回まで認めます。limit が0以下の場合は無制限です。
func NewRateLimiter(name string, limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0), name: name}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{limiter: rate.NewLimiter(every, limit), name: name}
}

// Wait はトークンが得られるまで待機します。ctx がキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Tokens() < 1 {
		slog.Debug("rate limit reached, waiting", "limiter", rl.name)
	}
	return rl.limiter.Wait(ctx)
}
