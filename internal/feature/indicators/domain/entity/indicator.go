// Package entity defines the domain models for the indicators feature.
package entity

import "time"

// Resolution is the granularity at which the market calendar is queried.
type Resolution string

const (
	// ResolutionDaily asks whether the market trades at all on a calendar date.
	ResolutionDaily Resolution = "1day"
	// ResolutionMinute asks whether the market is in session at an instant.
	ResolutionMinute Resolution = "1min"
)

// Kind identifies a technical indicator.
type Kind string

const (
	KindSMA    Kind = "sma"
	KindWMA    Kind = "wma"
	KindEMA    Kind = "ema"
	KindMACD   Kind = "macd"
	KindStdDev Kind = "stddev"
)

// Kinds lists every supported indicator in a stable order.
var Kinds = []Kind{KindSMA, KindWMA, KindEMA, KindMACD, KindStdDev}

// Valid reports whether k names a supported indicator.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// PricePoint is one trading day of a price window.
type PricePoint struct {
	Slot  int       // 0-based position of Date within the resolved trading-day window
	Date  time.Time // trading day
	Price float64   // price reported by the data source
}

// PriceWindow is an oldest-first sequence of prices over trading days.
// Days without a price are absent, so len(PriceWindow) may be below the period.
type PriceWindow []PricePoint

// Request describes a single indicator computation.
// A zero Date means "use the data source's current timestamp".
// A zero Smoothing means the default EMA smoothing factor.
type Request struct {
	Symbol    string
	Kind      Kind
	Period    int
	Date      time.Time
	Smoothing float64
}

// Result is the value produced for a Request.
type Result struct {
	Symbol string
	Kind   Kind
	Period int
	Date   time.Time // anchor date actually used
	Value  float64
}

// Snapshot holds every indicator computed for one symbol, period and anchor.
// A failed indicator appears in Errors instead of Values.
type Snapshot struct {
	Symbol string
	Period int
	Date   time.Time
	Values map[Kind]float64
	Errors map[Kind]string
}
