// Package dto はindicatorsフィーチャーのHTTPレスポンス形式を定義します。
package dto

// IndicatorResponse は単一指標のレスポンスです。
type IndicatorResponse struct {
	Symbol string  `json:"symbol"`
	Kind   string  `json:"kind"`
	Period int     `json:"period"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Value  float64 `json:"value"`
}

// SnapshotResponse は全指標のレスポンスです。失敗した指標は Errors に入ります。
type SnapshotResponse struct {
	Symbol string             `json:"symbol"`
	Period int                `json:"period"`
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
	Errors map[string]string  `json:"errors,omitempty"`
}

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
