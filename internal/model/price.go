package model

import "time"

// PricePoint is one (ticker, date) row of the canonical price history.
// StockSplit is the split multiplier effective on that date (1 = no split);
// CumulativeSplit is the running product of later splits, used to adjust
// historical unit counts.
type PricePoint struct {
	Ticker          string    `json:"ticker"`
	Date            time.Time `json:"date"`
	LastPrice       float64   `json:"lastPrice"`
	StockSplit      float64   `json:"stockSplit"`
	CumulativeSplit float64   `json:"cumulativeSplit"`
	Synthesized     bool      `json:"synthesized,omitempty"` // no market feed; built from transaction prices
}
