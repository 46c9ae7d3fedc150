package model

import "time"

// HistoryRow is the merged per-(ticker, date) transaction-history record.
// Derived metric fields hold NaN on dates before any cash flow exists for the
// ticker; the invariants between them are
//
//	return     = market_value + cumulative_cost
//	unrealized = market_value - average_price * cumulative_units
//	realized   = return - unrealized - cumulative_dividend
type HistoryRow struct {
	Ticker Ticker    `json:"ticker"`
	Date   time.Time `json:"date"`

	Units     float64           `json:"units"`
	Cost      float64           `json:"cost"`
	Price     float64           `json:"price"`
	Dividend  float64           `json:"dividend"`
	LastPrice float64           `json:"lastPrice"`
	Other     map[string]string `json:"other,omitempty"`

	CumulativeUnits               float64 `json:"cumulativeUnits"`
	CumulativeCost                float64 `json:"cumulativeCost"`
	CumulativeCostWithoutDividend float64 `json:"cumulativeCostWithoutDividend"`
	CumulativeDividend            float64 `json:"cumulativeDividend"`
	AveragePrice                  float64 `json:"averagePrice"`
	MarketValue                   float64 `json:"marketValue"`
	Return                        float64 `json:"return"`
	Unrealized                    float64 `json:"unrealized"`
	Realized                      float64 `json:"realized"`
}
