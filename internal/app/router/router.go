package router

import (
	"log/slog"
	"net/http"

	"indicator_backend/internal/feature/indicators/transport/handler"
	symbolhandler "indicator_backend/internal/feature/symbollist/transport/handler"
	platformhandler "indicator_backend/internal/platform/http/handler"
	jwtmw "indicator_backend/internal/platform/jwt"

	"github.com/gin-gonic/gin"
)

// NewRouter はルーティングを構築します。jwtSecret が空の場合、指標のルートは認証なしで公開されます。
func NewRouter(health *platformhandler.HealthHandler, indicators *handler.IndicatorsHandler,
	symbols *symbolhandler.SymbolHandler, metrics http.Handler, jwtSecret string) *gin.Engine {
	r := gin.Default()

	// 認証不要
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(metrics))
	r.GET("/symbols", symbols.List)

	api := r.Group("/indicators")
	if jwtSecret != "" {
		api.Use(jwtmw.AuthRequired(jwtSecret))
	} else {
		slog.Warn("JWT_SECRET is not set; indicator routes are public")
	}
	{
		api.GET("/:code", indicators.GetSnapshot)
		api.GET("/:code/:kind", indicators.GetIndicator)
	}

	return r
}
