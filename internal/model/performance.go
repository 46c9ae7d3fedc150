package model

import "time"

// PerformanceRecord is a performance snapshot for one ticker (including the
// "portfolio" aggregate and "benchmark-*" replications) at a specific as-of
// date. Percentage fields hold NaN when the return is undefined (no cash-flow
// sign change, solver non-convergence, degenerate windows).
type PerformanceRecord struct {
	Ticker       Ticker    `json:"ticker"`
	Date         time.Time `json:"date"`
	LookbackDate time.Time `json:"lookbackDate"`

	AveragePrice       float64 `json:"averagePrice"`
	LastPrice          float64 `json:"lastPrice"`
	CumulativeUnits    float64 `json:"cumulativeUnits"`
	CumulativeCost     float64 `json:"cumulativeCost"`
	MarketValue        float64 `json:"marketValue"`
	Return             float64 `json:"return"`
	DwrrPct            float64 `json:"dwrrPct"`
	DwrrAnnPct         float64 `json:"dwrrAnnPct"`
	DivDwrrPct         float64 `json:"divDwrrPct"`
	DivDwrrAnnPct      float64 `json:"divDwrrAnnPct"`
	Realized           float64 `json:"realized"`
	Unrealized         float64 `json:"unrealized"`
	CumulativeDividend float64 `json:"cumulativeDividend"`
	SimplePct          float64 `json:"simplePct"`

	// Portfolio-row only: market value held as cash vs in equities.
	Cash   float64 `json:"cash"`
	Equity float64 `json:"equity"`
}

// ReturnPcts holds the return percentages computed for one ticker's cash-flow
// series over a window.
type ReturnPcts struct {
	DwrrPct       float64 `json:"dwrrPct"`
	DwrrAnnPct    float64 `json:"dwrrAnnPct"`
	DivDwrrPct    float64 `json:"divDwrrPct"`
	DivDwrrAnnPct float64 `json:"divDwrrAnnPct"`
	MdrrPct       float64 `json:"mdrrPct"`
	MdrrAnnPct    float64 `json:"mdrrAnnPct"`
}
