package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/model"
)

// ManagerEntry pairs a portfolio configuration with its transaction source.
// Prices optionally overrides the manager's shared price source, for
// portfolios that read an offline history.
type ManagerEntry struct {
	Config       Config
	Transactions TransactionSource
	Prices       PriceSource
}

// Manager analyzes multiple portfolios side by side.
type Manager struct {
	portfolios []*Portfolio
}

// NewManager builds every portfolio concurrently. The price source is shared,
// so implementations that cache by ticker avoid refetching overlapping
// holdings.
func NewManager(ctx context.Context, entries []ManagerEntry, prices PriceSource) (*Manager, error) {
	portfolios := make([]*Portfolio, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		source := prices
		if entry.Prices != nil {
			source = entry.Prices
		}
		g.Go(func() error {
			p, err := New(gctx, entry.Config, entry.Transactions, source)
			if err != nil {
				return err
			}
			portfolios[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Manager{portfolios: portfolios}, nil
}

// Portfolios returns the managed portfolios in configuration order.
func (m *Manager) Portfolios() []*Portfolio {
	return append([]*Portfolio(nil), m.portfolios...)
}

// Portfolio returns the managed portfolio with the given name.
func (m *Manager) Portfolio(name string) (*Portfolio, error) {
	for _, p := range m.portfolios {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrPortfolioNotFound, name)
}

// LookbackReturn is the windowed return of one portfolio and its benchmark.
type LookbackReturn struct {
	DwrrPct          float64 `json:"dwrrPct"`
	DivDwrrPct       float64 `json:"divDwrrPct"`
	BenchmarkDwrrPct float64 `json:"benchmarkDwrrPct"`
}

// SummaryRow is one portfolio's line in the manager summary.
type SummaryRow struct {
	Portfolio   string                    `json:"portfolio"`
	Date        time.Time                 `json:"date"`
	MarketValue float64                   `json:"marketValue"`
	Cash        float64                   `json:"cash"`
	Equity      float64                   `json:"equity"`
	Return      float64                   `json:"return"`
	DwrrPct     float64                   `json:"dwrrPct"`
	Benchmark   string                    `json:"benchmark,omitempty"`
	Lookbacks   map[string]LookbackReturn `json:"lookbacks,omitempty"`
}

// Summary reports each portfolio's aggregate state as of a date, with one
// windowed return column per requested lookback. A zero date means each
// portfolio's own latest date.
func (m *Manager) Summary(date time.Time, lookbacks []string) ([]SummaryRow, error) {
	names := make([]string, len(m.portfolios))
	for i, p := range m.portfolios {
		names[i] = p.Name()
	}
	log.Printf("summarizing portfolios [%s] with lookbacks %v", strings.Join(names, ", "), lookbacks)

	var rows []SummaryRow
	for _, p := range m.portfolios {
		row, err := m.summarize(p, date, lookbacks)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *Manager) summarize(p *Portfolio, date time.Time, lookbacks []string) (SummaryRow, error) {
	records, err := p.Performance(date, "")
	if err != nil {
		return SummaryRow{}, err
	}
	row := SummaryRow{Portfolio: p.Name()}
	for _, rec := range records {
		switch rec.Ticker.Kind {
		case model.KindPortfolio:
			row.Date = rec.Date
			row.MarketValue = rec.MarketValue
			row.Cash = rec.Cash
			row.Equity = rec.Equity
			row.Return = rec.Return
			row.DwrrPct = rec.DwrrPct
		case model.KindBenchmark:
			if row.Benchmark == "" {
				row.Benchmark = rec.Ticker.Symbol
			}
		}
	}

	if len(lookbacks) > 0 {
		row.Lookbacks = make(map[string]LookbackReturn, len(lookbacks))
	}
	for _, lookback := range lookbacks {
		windowed, err := p.Performance(date, lookback)
		if err != nil {
			return SummaryRow{}, err
		}
		lr := LookbackReturn{
			DwrrPct:          math.NaN(),
			DivDwrrPct:       math.NaN(),
			BenchmarkDwrrPct: math.NaN(),
		}
		benchmarkSet := false
		for _, rec := range windowed {
			switch rec.Ticker.Kind {
			case model.KindPortfolio:
				lr.DwrrPct = rec.DwrrPct
				lr.DivDwrrPct = rec.DivDwrrPct
			case model.KindBenchmark:
				if !benchmarkSet {
					lr.BenchmarkDwrrPct = rec.DwrrPct
					benchmarkSet = true
				}
			}
		}
		row.Lookbacks[lookback] = lr
	}
	return row, nil
}

// ManagerViewRow is one date of a cross-portfolio metric pivot: the metric's
// aggregate value per portfolio name.
type ManagerViewRow struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// View pivots one metric's portfolio aggregate across all managed portfolios,
// oldest first. Dates missing from a portfolio's history are absent from its
// column.
func (m *Manager) View(metric string) ([]ManagerViewRow, error) {
	byDate := make(map[time.Time]map[string]float64)
	var dates []time.Time
	for _, p := range m.portfolios {
		view, err := p.View(metric, "")
		if err != nil {
			return nil, err
		}
		for _, vr := range view {
			total, ok := vr.Values[model.PortfolioTicker]
			if !ok {
				continue
			}
			cell, ok := byDate[vr.Date]
			if !ok {
				cell = make(map[string]float64)
				byDate[vr.Date] = cell
				dates = append(dates, vr.Date)
			}
			cell[p.Name()] = total
		}
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	rows := make([]ManagerViewRow, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, ManagerViewRow{Date: d, Values: byDate[d]})
	}
	return rows, nil
}

type lookbackReturnJSON struct {
	DwrrPct          *float64 `json:"dwrrPct"`
	DivDwrrPct       *float64 `json:"divDwrrPct"`
	BenchmarkDwrrPct *float64 `json:"benchmarkDwrrPct"`
}

// MarshalJSON serializes the windowed returns with NaN as null.
func (lr LookbackReturn) MarshalJSON() ([]byte, error) {
	return json.Marshal(lookbackReturnJSON{
		DwrrPct:          model.OptFloat(lr.DwrrPct),
		DivDwrrPct:       model.OptFloat(lr.DivDwrrPct),
		BenchmarkDwrrPct: model.OptFloat(lr.BenchmarkDwrrPct),
	})
}

// UnmarshalJSON restores the windowed returns, mapping null back to NaN.
func (lr *LookbackReturn) UnmarshalJSON(data []byte) error {
	var raw lookbackReturnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*lr = LookbackReturn{
		DwrrPct:          model.FloatOrNaN(raw.DwrrPct),
		DivDwrrPct:       model.FloatOrNaN(raw.DivDwrrPct),
		BenchmarkDwrrPct: model.FloatOrNaN(raw.BenchmarkDwrrPct),
	}
	return nil
}

type summaryRowJSON struct {
	Portfolio   string                    `json:"portfolio"`
	Date        time.Time                 `json:"date"`
	MarketValue *float64                  `json:"marketValue"`
	Cash        *float64                  `json:"cash"`
	Equity      *float64                  `json:"equity"`
	Return      *float64                  `json:"return"`
	DwrrPct     *float64                  `json:"dwrrPct"`
	Benchmark   string                    `json:"benchmark,omitempty"`
	Lookbacks   map[string]LookbackReturn `json:"lookbacks,omitempty"`
}

// MarshalJSON serializes the summary row with NaN metrics as null.
func (row SummaryRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryRowJSON{
		Portfolio:   row.Portfolio,
		Date:        row.Date,
		MarketValue: model.OptFloat(row.MarketValue),
		Cash:        model.OptFloat(row.Cash),
		Equity:      model.OptFloat(row.Equity),
		Return:      model.OptFloat(row.Return),
		DwrrPct:     model.OptFloat(row.DwrrPct),
		Benchmark:   row.Benchmark,
		Lookbacks:   row.Lookbacks,
	})
}

// UnmarshalJSON restores the summary row, mapping null metrics back to NaN.
func (row *SummaryRow) UnmarshalJSON(data []byte) error {
	var raw summaryRowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*row = SummaryRow{
		Portfolio:   raw.Portfolio,
		Date:        raw.Date,
		MarketValue: model.FloatOrNaN(raw.MarketValue),
		Cash:        model.FloatOrNaN(raw.Cash),
		Equity:      model.FloatOrNaN(raw.Equity),
		Return:      model.FloatOrNaN(raw.Return),
		DwrrPct:     model.FloatOrNaN(raw.DwrrPct),
		Benchmark:   raw.Benchmark,
		Lookbacks:   raw.Lookbacks,
	}
	return nil
}
