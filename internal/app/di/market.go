// Package di provides dependency injection factories for creating application components.
package di

import (
	"indicator_backend/internal/platform/externalapi/twelvedata"
	infrahttp "indicator_backend/internal/platform/http"
)

// NewMarket creates a Twelve Data market client configured from the environment.
func NewMarket() *twelvedata.Market {
	cfg := twelvedata.LoadConfig()
	return twelvedata.NewMarket(cfg, infrahttp.NewHTTPClient(cfg.Timeout))
}
