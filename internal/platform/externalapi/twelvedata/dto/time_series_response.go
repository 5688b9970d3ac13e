// Package dto defines the Twelve Data wire format.
package dto

// TimeSeriesResponse is the body of GET /time_series.
// On failure Status is "error" and Code/Message are set instead of Values.
type TimeSeriesResponse struct {
	Status  string            `json:"status"`
	Code    int               `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Meta    TimeSeriesMeta    `json:"meta"`
	Values  []TimeSeriesValue `json:"values"`
}

// TimeSeriesMeta describes the returned series.
type TimeSeriesMeta struct {
	Symbol           string `json:"symbol"`
	Interval         string `json:"interval"`
	ExchangeTimezone string `json:"exchange_timezone"`
}

// TimeSeriesValue is one bar. Numbers are sent as strings; volume is absent
// for instruments without traded volume (FX, indices).
type TimeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume,omitempty"`
}
