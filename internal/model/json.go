package model

import (
	"encoding/json"
	"math"
	"time"
)

// The engine uses NaN for undefined metrics, which encoding/json refuses to
// marshal. The records that cross the API or land in storage marshal NaN as
// null and read null back as NaN.

// OptFloat returns nil for NaN or infinite values so they serialize as null.
func OptFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FloatOrNaN restores a serialized optional float, mapping null back to NaN.
func FloatOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

type performanceRecordJSON struct {
	Ticker             Ticker    `json:"ticker"`
	Date               time.Time `json:"date"`
	LookbackDate       time.Time `json:"lookbackDate"`
	AveragePrice       *float64  `json:"averagePrice"`
	LastPrice          *float64  `json:"lastPrice"`
	CumulativeUnits    *float64  `json:"cumulativeUnits"`
	CumulativeCost     *float64  `json:"cumulativeCost"`
	MarketValue        *float64  `json:"marketValue"`
	Return             *float64  `json:"return"`
	DwrrPct            *float64  `json:"dwrrPct"`
	DwrrAnnPct         *float64  `json:"dwrrAnnPct"`
	DivDwrrPct         *float64  `json:"divDwrrPct"`
	DivDwrrAnnPct      *float64  `json:"divDwrrAnnPct"`
	Realized           *float64  `json:"realized"`
	Unrealized         *float64  `json:"unrealized"`
	CumulativeDividend *float64  `json:"cumulativeDividend"`
	SimplePct          *float64  `json:"simplePct"`
	Cash               *float64  `json:"cash"`
	Equity             *float64  `json:"equity"`
}

// MarshalJSON serializes the record with NaN metrics as null.
func (r PerformanceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(performanceRecordJSON{
		Ticker:             r.Ticker,
		Date:               r.Date,
		LookbackDate:       r.LookbackDate,
		AveragePrice:       OptFloat(r.AveragePrice),
		LastPrice:          OptFloat(r.LastPrice),
		CumulativeUnits:    OptFloat(r.CumulativeUnits),
		CumulativeCost:     OptFloat(r.CumulativeCost),
		MarketValue:        OptFloat(r.MarketValue),
		Return:             OptFloat(r.Return),
		DwrrPct:            OptFloat(r.DwrrPct),
		DwrrAnnPct:         OptFloat(r.DwrrAnnPct),
		DivDwrrPct:         OptFloat(r.DivDwrrPct),
		DivDwrrAnnPct:      OptFloat(r.DivDwrrAnnPct),
		Realized:           OptFloat(r.Realized),
		Unrealized:         OptFloat(r.Unrealized),
		CumulativeDividend: OptFloat(r.CumulativeDividend),
		SimplePct:          OptFloat(r.SimplePct),
		Cash:               OptFloat(r.Cash),
		Equity:             OptFloat(r.Equity),
	})
}

// UnmarshalJSON restores a record, mapping null metrics back to NaN.
func (r *PerformanceRecord) UnmarshalJSON(data []byte) error {
	var raw performanceRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = PerformanceRecord{
		Ticker:             raw.Ticker,
		Date:               raw.Date,
		LookbackDate:       raw.LookbackDate,
		AveragePrice:       FloatOrNaN(raw.AveragePrice),
		LastPrice:          FloatOrNaN(raw.LastPrice),
		CumulativeUnits:    FloatOrNaN(raw.CumulativeUnits),
		CumulativeCost:     FloatOrNaN(raw.CumulativeCost),
		MarketValue:        FloatOrNaN(raw.MarketValue),
		Return:             FloatOrNaN(raw.Return),
		DwrrPct:            FloatOrNaN(raw.DwrrPct),
		DwrrAnnPct:         FloatOrNaN(raw.DwrrAnnPct),
		DivDwrrPct:         FloatOrNaN(raw.DivDwrrPct),
		DivDwrrAnnPct:      FloatOrNaN(raw.DivDwrrAnnPct),
		Realized:           FloatOrNaN(raw.Realized),
		Unrealized:         FloatOrNaN(raw.Unrealized),
		CumulativeDividend: FloatOrNaN(raw.CumulativeDividend),
		SimplePct:          FloatOrNaN(raw.SimplePct),
		Cash:               FloatOrNaN(raw.Cash),
		Equity:             FloatOrNaN(raw.Equity),
	}
	return nil
}

type historyRowJSON struct {
	Ticker                        Ticker            `json:"ticker"`
	Date                          time.Time         `json:"date"`
	Units                         *float64          `json:"units"`
	Cost                          *float64          `json:"cost"`
	Price                         *float64          `json:"price"`
	Dividend                      *float64          `json:"dividend"`
	LastPrice                     *float64          `json:"lastPrice"`
	Other                         map[string]string `json:"other,omitempty"`
	CumulativeUnits               *float64          `json:"cumulativeUnits"`
	CumulativeCost                *float64          `json:"cumulativeCost"`
	CumulativeCostWithoutDividend *float64          `json:"cumulativeCostWithoutDividend"`
	CumulativeDividend            *float64          `json:"cumulativeDividend"`
	AveragePrice                  *float64          `json:"averagePrice"`
	MarketValue                   *float64          `json:"marketValue"`
	Return                        *float64          `json:"return"`
	Unrealized                    *float64          `json:"unrealized"`
	Realized                      *float64          `json:"realized"`
}

// MarshalJSON serializes the row with NaN metrics as null. Portfolio rows and
// dates before a ticker's first cash flow carry NaN in several columns.
func (r HistoryRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyRowJSON{
		Ticker:                        r.Ticker,
		Date:                          r.Date,
		Units:                         OptFloat(r.Units),
		Cost:                          OptFloat(r.Cost),
		Price:                         OptFloat(r.Price),
		Dividend:                      OptFloat(r.Dividend),
		LastPrice:                     OptFloat(r.LastPrice),
		Other:                         r.Other,
		CumulativeUnits:               OptFloat(r.CumulativeUnits),
		CumulativeCost:                OptFloat(r.CumulativeCost),
		CumulativeCostWithoutDividend: OptFloat(r.CumulativeCostWithoutDividend),
		CumulativeDividend:            OptFloat(r.CumulativeDividend),
		AveragePrice:                  OptFloat(r.AveragePrice),
		MarketValue:                   OptFloat(r.MarketValue),
		Return:                        OptFloat(r.Return),
		Unrealized:                    OptFloat(r.Unrealized),
		Realized:                      OptFloat(r.Realized),
	})
}

// UnmarshalJSON restores a row, mapping null metrics back to NaN.
func (r *HistoryRow) UnmarshalJSON(data []byte) error {
	var raw historyRowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = HistoryRow{
		Ticker:                        raw.Ticker,
		Date:                          raw.Date,
		Units:                         FloatOrNaN(raw.Units),
		Cost:                          FloatOrNaN(raw.Cost),
		Price:                         FloatOrNaN(raw.Price),
		Dividend:                      FloatOrNaN(raw.Dividend),
		LastPrice:                     FloatOrNaN(raw.LastPrice),
		Other:                         raw.Other,
		CumulativeUnits:               FloatOrNaN(raw.CumulativeUnits),
		CumulativeCost:                FloatOrNaN(raw.CumulativeCost),
		CumulativeCostWithoutDividend: FloatOrNaN(raw.CumulativeCostWithoutDividend),
		CumulativeDividend:            FloatOrNaN(raw.CumulativeDividend),
		AveragePrice:                  FloatOrNaN(raw.AveragePrice),
		MarketValue:                   FloatOrNaN(raw.MarketValue),
		Return:                        FloatOrNaN(raw.Return),
		Unrealized:                    FloatOrNaN(raw.Unrealized),
		Realized:                      FloatOrNaN(raw.Realized),
	}
	return nil
}

type returnPctsJSON struct {
	DwrrPct       *float64 `json:"dwrrPct"`
	DwrrAnnPct    *float64 `json:"dwrrAnnPct"`
	DivDwrrPct    *float64 `json:"divDwrrPct"`
	DivDwrrAnnPct *float64 `json:"divDwrrAnnPct"`
	MdrrPct       *float64 `json:"mdrrPct"`
	MdrrAnnPct    *float64 `json:"mdrrAnnPct"`
}

// MarshalJSON serializes the percentages with NaN as null.
func (p ReturnPcts) MarshalJSON() ([]byte, error) {
	return json.Marshal(returnPctsJSON{
		DwrrPct:       OptFloat(p.DwrrPct),
		DwrrAnnPct:    OptFloat(p.DwrrAnnPct),
		DivDwrrPct:    OptFloat(p.DivDwrrPct),
		DivDwrrAnnPct: OptFloat(p.DivDwrrAnnPct),
		MdrrPct:       OptFloat(p.MdrrPct),
		MdrrAnnPct:    OptFloat(p.MdrrAnnPct),
	})
}

// UnmarshalJSON restores the percentages, mapping null back to NaN.
func (p *ReturnPcts) UnmarshalJSON(data []byte) error {
	var raw returnPctsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ReturnPcts{
		DwrrPct:       FloatOrNaN(raw.DwrrPct),
		DwrrAnnPct:    FloatOrNaN(raw.DwrrAnnPct),
		DivDwrrPct:    FloatOrNaN(raw.DivDwrrPct),
		DivDwrrAnnPct: FloatOrNaN(raw.DivDwrrAnnPct),
		MdrrPct:       FloatOrNaN(raw.MdrrPct),
		MdrrAnnPct:    FloatOrNaN(raw.MdrrAnnPct),
	}
	return nil
}
