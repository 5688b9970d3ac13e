// Package entity defines the domain models for the candles feature.
package entity

import "time"

// IntervalDaily is the candle interval backing daily indicator prices.
const IntervalDaily = "1day"

// Candle represents OHLCV (Open, High, Low, Close, Volume) candlestick data
// for a stock symbol at a specific time interval.
type Candle struct {
	Symbol   string    // Stock ticker symbol (e.g., "AAPL", "7203.T")
	Interval string    // Time interval (e.g., "1day")
	Time     time.Time // Start of the candle period, stored in UTC
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
}

// Day returns the UTC calendar day covering t, taken from t's own
// year/month/day so that a trading date does not shift across time zones.
func Day(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
