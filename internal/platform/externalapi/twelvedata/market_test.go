package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

func newTestMarket(t *testing.T, h http.HandlerFunc) *Market {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewMarket(Config{APIKey: "test-key", BaseURL: server.URL}, server.Client())
}

func writeJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestMarket_GetTimeSeries_Success(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/time_series" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("symbol") != "AAPL" || q.Get("interval") != "1day" || q.Get("outputsize") != "100" || q.Get("apikey") != "test-key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeJSON(http.StatusOK, `{
			"status": "ok",
			"meta": {"symbol": "AAPL", "interval": "1day", "exchange_timezone": "UTC"},
			"values": [
				{"datetime": "2025-01-15", "open": "150.00", "high": "155.00", "low": "149.00", "close": "154.50", "volume": "1000000"},
				{"datetime": "2025-01-14", "open": "148.00", "high": "151.00", "low": "147.50", "close": "150.00", "volume": "900000"}
			]
		}`)(w, r)
	})

	candles, err := market.GetTimeSeries(context.Background(), "AAPL", "1day", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}

	c := candles[0]
	if c.Symbol != "AAPL" || c.Interval != "1day" {
		t.Errorf("symbol/interval not set: %+v", c)
	}
	if !c.Time.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", c.Time)
	}
	if c.Open != 150 || c.High != 155 || c.Low != 149 || c.Close != 154.5 || c.Volume != 1000000 {
		t.Errorf("unexpected prices %+v", c)
	}
}

func TestMarket_GetTimeSeries_IntradayUsesExchangeTimezone(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, writeJSON(http.StatusOK, `{
		"status": "ok",
		"meta": {"exchange_timezone": "America/New_York"},
		"values": [{"datetime": "2025-01-14 09:30:00", "open": "1", "high": "1", "low": "1", "close": "1"}]
	}`))

	candles, err := market.GetTimeSeries(context.Background(), "EUR/USD", "1min", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 14, 14, 30, 0, 0, time.UTC)
	if !candles[0].Time.Equal(want) {
		t.Errorf("expected %v, got %v", want, candles[0].Time.UTC())
	}
	if candles[0].Volume != 0 {
		t.Errorf("missing volume should be 0, got %d", candles[0].Volume)
	}
}

func TestMarket_GetTimeSeries_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		statusCode  int
		rateLimited bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"too many requests", http.StatusTooManyRequests, true},
		{"internal server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			market := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			_, err := market.GetTimeSeries(context.Background(), "AAPL", "1day", 100)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Code != tt.statusCode {
				t.Errorf("expected code %d, got %d", tt.statusCode, apiErr.Code)
			}
			if errors.Is(err, ErrRateLimited) != tt.rateLimited {
				t.Errorf("errors.Is(ErrRateLimited) = %v, want %v", !tt.rateLimited, tt.rateLimited)
			}
		})
	}
}

func TestMarket_GetTimeSeries_APIError(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, writeJSON(http.StatusOK, `{"status": "error", "code": 401, "message": "Invalid API key"}`))

	_, err := market.GetTimeSeries(context.Background(), "AAPL", "1day", 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("expected API error message, got %v", err)
	}
}

func TestMarket_GetTimeSeries_InvalidJSON(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, writeJSON(http.StatusOK, `{invalid json`))

	if _, err := market.GetTimeSeries(context.Background(), "AAPL", "1day", 100); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestMarket_GetTimeSeries_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		errField string
	}{
		{"invalid datetime", `{"datetime": "invalid-date", "open": "1", "high": "1", "low": "1", "close": "1"}`, "parse time"},
		{"invalid open", `{"datetime": "2025-01-15", "open": "abc", "high": "1", "low": "1", "close": "1"}`, "parse open"},
		{"invalid high", `{"datetime": "2025-01-15", "open": "1", "high": "xyz", "low": "1", "close": "1"}`, "parse high"},
		{"invalid low", `{"datetime": "2025-01-15", "open": "1", "high": "1", "low": "bad", "close": "1"}`, "parse low"},
		{"invalid close", `{"datetime": "2025-01-15", "open": "1", "high": "1", "low": "1", "close": "bad"}`, "parse close"},
		{"invalid volume", `{"datetime": "2025-01-15", "open": "1", "high": "1", "low": "1", "close": "1", "volume": "n/a"}`, "parse volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			market := newTestMarket(t, writeJSON(http.StatusOK, `{"status": "ok", "values": [`+tt.value+`]}`))

			_, err := market.GetTimeSeries(context.Background(), "AAPL", "1day", 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errField) {
				t.Errorf("expected error containing %q, got %v", tt.errField, err)
			}
		})
	}
}

func TestMarket_GetTimeSeries_EmptyValues(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, writeJSON(http.StatusOK, `{"status": "ok", "values": []}`))

	candles, err := market.GetTimeSeries(context.Background(), "AAPL", "1day", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 0 {
		t.Errorf("expected 0 candles, got %d", len(candles))
	}
}

func TestMarket_GetTimeSeries_ContextCancellation(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := market.GetTimeSeries(ctx, "AAPL", "1day", 100); err == nil {
		t.Fatal("expected error due to context cancellation, got nil")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TWELVE_DATA_API_KEY", "k")
	t.Setenv("TWELVE_DATA_BASE_URL", "")
	t.Setenv("TWELVE_DATA_TIMEOUT", "3s")

	cfg := LoadConfig()

	if cfg.APIKey != "k" {
		t.Errorf("expected api key k, got %q", cfg.APIKey)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("expected default base url, got %q", cfg.BaseURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", cfg.Timeout)
	}
}
