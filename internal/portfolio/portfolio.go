package portfolio

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// TransactionSource supplies the raw transaction ledger for a portfolio.
type TransactionSource interface {
	Transactions(ctx context.Context) ([]model.Transaction, error)
}

// PriceSource supplies daily closing prices and split factors for tickers,
// from the given year onward.
type PriceSource interface {
	PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error)
}

// Config describes one portfolio: how to read its ledger and which tickers
// need special price handling.
type Config struct {
	Name          string                  `json:"name"`
	FilterTypes   []model.TransactionType `json:"filterTypes,omitempty"`
	FilterBrokers []string                `json:"filterBrokers,omitempty"`
	Funds         []string                `json:"funds,omitempty"`
	Delisted      []string                `json:"delisted,omitempty"`
	Benchmarks    []string                `json:"benchmarks,omitempty"`
	OtherFields   []string                `json:"otherFields,omitempty"`
	StockSplits   bool                    `json:"stockSplits,omitempty"`
}

// Portfolio analyzes one transaction ledger: it joins the ledger with price
// history and derives positions, cost basis, market values and returns for
// each traded ticker, an aggregate pseudo-ticker, and any benchmark
// replications. All derived state is built once in New; the accessors and
// report methods only read it.
type Portfolio struct {
	cfg          Config
	transactions []model.Transaction
	priceHistory []model.PricePoint
	history      []model.HistoryRow
	tickers      []string
	maxDate      time.Time
	checksFailed int
}

// New builds a portfolio from its transaction ledger and a price source.
func New(ctx context.Context, cfg Config, txs TransactionSource, prices PriceSource) (*Portfolio, error) {
	log.Printf("creating %q portfolio", cfg.Name)

	raw, err := txs.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading transactions for %q: %w", cfg.Name, err)
	}
	normalized, err := Normalize(raw, NormalizeOptions{
		FilterTypes:   cfg.FilterTypes,
		FilterBrokers: cfg.FilterBrokers,
		OtherFields:   cfg.OtherFields,
		FixDates:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("normalizing transactions for %q: %w", cfg.Name, err)
	}
	ledger := normalized.Transactions
	if len(ledger) == 0 {
		return nil, fmt.Errorf("%w: %q has no transactions after filtering", apperrors.ErrNoTransactions, cfg.Name)
	}

	tickers := uniqueTickers(ledger)
	minYear := ledger[len(ledger)-1].Date.Year()
	for _, tx := range ledger {
		if tx.Date.Year() < minYear {
			minYear = tx.Date.Year()
		}
	}

	feed, err := fetchPrices(ctx, prices, cfg, tickers, minYear)
	if err != nil {
		return nil, err
	}

	history, coverageWarns := BuildPriceHistory(feed, ledger, PriceHistoryOptions{
		Funds:    cfg.Funds,
		Delisted: cfg.Delisted,
	})
	if cfg.StockSplits {
		ledger = splitAdjust(ledger, history)
	}

	p := &Portfolio{
		cfg:          cfg,
		transactions: ledger,
		priceHistory: history,
		tickers:      tickers,
		checksFailed: CheckTransactions(ledger) + coverageWarns,
	}
	p.history = p.buildHistory(ledger, history)
	for _, row := range p.history {
		if row.Date.After(p.maxDate) {
			p.maxDate = row.Date
		}
	}
	return p, nil
}

// fetchPrices pulls the price feed for everything that trades on an exchange.
// Funds, delisted tickers and cash have no feed; their series are synthesized
// from transaction prices later.
func fetchPrices(ctx context.Context, prices PriceSource, cfg Config, tickers []string, minYear int) ([]model.PricePoint, error) {
	var listed []string
	for _, t := range tickers {
		if t == model.CashTicker || slices.Contains(cfg.Funds, t) || slices.Contains(cfg.Delisted, t) {
			continue
		}
		listed = append(listed, t)
	}
	for _, b := range cfg.Benchmarks {
		if !slices.Contains(listed, b) {
			listed = append(listed, b)
		}
	}
	if len(listed) == 0 {
		return nil, nil
	}
	feed, err := prices.PriceHistory(ctx, listed, minYear)
	if err != nil {
		return nil, fmt.Errorf("loading price history for %q: %w", cfg.Name, err)
	}
	return feed, nil
}

// buildHistory runs the merge pipeline: cash legs, price join, dividends,
// metrics, the portfolio aggregate, and the benchmark replications.
func (p *Portfolio) buildHistory(ledger []model.Transaction, history []model.PricePoint) []model.HistoryRow {
	var active []model.Transaction
	for _, tx := range ledger {
		if tx.Cost != 0 || tx.Units != 0 {
			active = append(active, tx)
		}
	}
	withCash := addCashTransactions(active, p.cfg.OtherFields)
	dividends := extractDividends(withCash)
	rows := mergeHistory(withCash, history, dividends, p.cfg.OtherFields)
	rows = calcMetrics(rows)
	rows = addPortfolioRows(rows)
	for _, benchmark := range p.cfg.Benchmarks {
		rows = append(rows, buildBenchmark(benchmark, active, history)...)
	}
	sortHistoryDesc(rows)
	return rows
}

// Name returns the configured portfolio name.
func (p *Portfolio) Name() string { return p.cfg.Name }

// Tickers returns the tickers traded in the ledger.
func (p *Portfolio) Tickers() []string { return slices.Clone(p.tickers) }

// MaxDate returns the latest date in the transaction history.
func (p *Portfolio) MaxDate() time.Time { return p.maxDate }

// ChecksFailed returns how many ledger checks logged a warning during build.
func (p *Portfolio) ChecksFailed() int { return p.checksFailed }

// Transactions returns the normalized ledger, newest first.
func (p *Portfolio) Transactions() []model.Transaction {
	return slices.Clone(p.transactions)
}

// PriceHistory returns the merged price history, newest first.
func (p *Portfolio) PriceHistory() []model.PricePoint {
	return slices.Clone(p.priceHistory)
}

// TransactionsHistory returns the full derived history, every ticker on every
// date with its metrics, newest first.
func (p *Portfolio) TransactionsHistory() []model.HistoryRow {
	return slices.Clone(p.history)
}

// Performance reports the state of every ticker as of a date, with return
// percentages over the window. A zero date means the latest history date;
// dates past it are an error. A non-empty lookback narrows the window and
// rebases the cumulative variables to it.
func (p *Portfolio) Performance(date time.Time, lookback string) ([]model.PerformanceRecord, error) {
	date, err := p.resolveDate(date)
	if err != nil {
		return nil, err
	}

	rows := filterOnOrBefore(p.history, date)
	if lookback != "" {
		days, err := convertLookback(lookback, time.Now())
		if err != nil {
			return nil, err
		}
		rows = filterLookback(rows, days, true)
	}
	lookbackDate := date
	for _, row := range rows {
		if row.Date.Before(lookbackDate) {
			lookbackDate = row.Date
		}
	}

	pcts := make(map[model.Ticker]model.ReturnPcts)
	for _, ticker := range historyTickers(rows) {
		pcts[ticker] = calcReturnPcts(rows, ticker, date)
	}

	var records []model.PerformanceRecord
	seen := make(map[model.Ticker]bool)
	duplicates := 0
	var firstDuplicate model.Ticker
	nan := math.NaN()
	for _, row := range rows {
		if !row.Date.Equal(date) {
			continue
		}
		if seen[row.Ticker] {
			duplicates++
			if duplicates == 1 {
				firstDuplicate = row.Ticker
			}
			continue
		}
		seen[row.Ticker] = true

		rp := pcts[row.Ticker]
		rec := model.PerformanceRecord{
			Ticker:             row.Ticker,
			Date:               row.Date,
			LookbackDate:       lookbackDate,
			AveragePrice:       row.AveragePrice,
			LastPrice:          row.LastPrice,
			CumulativeUnits:    row.CumulativeUnits,
			CumulativeCost:     row.CumulativeCost,
			MarketValue:        row.MarketValue,
			Return:             row.Return,
			DwrrPct:            rp.DwrrPct,
			DwrrAnnPct:         rp.DwrrAnnPct,
			DivDwrrPct:         rp.DivDwrrPct,
			DivDwrrAnnPct:      rp.DivDwrrAnnPct,
			Realized:           row.Realized,
			Unrealized:         row.Unrealized,
			CumulativeDividend: row.CumulativeDividend,
			Cash:               nan,
			Equity:             nan,
		}
		// simple return adds realized back since cost is reduced by it
		denom := -row.CumulativeCost + row.Realized
		if denom == 0 {
			rec.SimplePct = nan
		} else {
			rec.SimplePct = row.Return / denom
		}
		records = append(records, rec)
	}
	if duplicates > 0 {
		log.Printf("WARN: found %d duplicate tickers in performance such as %s on %s",
			duplicates, firstDuplicate, date.Format("2006-01-02"))
	}

	// the portfolio row also reports how the market value splits between
	// cash and equities
	var cash, equity float64
	for _, rec := range records {
		if math.IsNaN(rec.MarketValue) {
			continue
		}
		switch {
		case rec.Ticker.IsCash():
			cash += rec.MarketValue
		case rec.Ticker.Kind == model.KindReal:
			equity += rec.MarketValue
		}
	}
	for i := range records {
		if records[i].Ticker.Kind == model.KindPortfolio {
			records[i].Cash = cash
			records[i].Equity = equity
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Ticker.String() < records[b].Ticker.String()
	})
	return records, nil
}

// ReturnPcts computes the return percentages for every ticker in the history
// as of a date, including the Modified Dietz figures that Performance omits.
func (p *Portfolio) ReturnPcts(date time.Time, lookback string) (map[string]model.ReturnPcts, error) {
	date, err := p.resolveDate(date)
	if err != nil {
		return nil, err
	}
	rows := p.history
	if lookback != "" {
		days, err := convertLookback(lookback, time.Now())
		if err != nil {
			return nil, err
		}
		rows = filterLookback(rows, days, false)
	}
	pcts := make(map[string]model.ReturnPcts)
	for _, ticker := range historyTickers(rows) {
		pcts[ticker.String()] = calcReturnPcts(rows, ticker, date)
	}
	return pcts, nil
}

// ViewRow is one date of a metric pivot: the metric summed per ticker, plus a
// recomputed "portfolio" total over the non-benchmark tickers.
type ViewRow struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// View pivots one metric of the history into a per-date, per-ticker series,
// oldest first. Useful for charting. A non-empty lookback narrows and rebases
// the window.
func (p *Portfolio) View(metric string, lookback string) ([]ViewRow, error) {
	field, err := metricField(metric)
	if err != nil {
		return nil, err
	}
	rows := p.history
	if lookback != "" {
		days, err := convertLookback(lookback, time.Now())
		if err != nil {
			return nil, err
		}
		rows = filterLookback(rows, days, true)
	}

	byDate := make(map[time.Time]map[string]float64)
	var dates []time.Time
	for i := range rows {
		v := field(&rows[i])
		if math.IsNaN(v) {
			continue
		}
		cell, ok := byDate[rows[i].Date]
		if !ok {
			cell = make(map[string]float64)
			byDate[rows[i].Date] = cell
			dates = append(dates, rows[i].Date)
		}
		cell[rows[i].Ticker.String()] += v
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	view := make([]ViewRow, 0, len(dates))
	for _, d := range dates {
		cell := byDate[d]
		total := 0.0
		for ticker, v := range cell {
			if ticker == model.PortfolioTicker || isBenchmarkName(ticker) {
				continue
			}
			total += v
		}
		cell[model.PortfolioTicker] = total
		view = append(view, ViewRow{Date: d, Values: cell})
	}
	return view, nil
}

// resolveDate defaults a zero date to the latest history date, snaps it to a
// trading day, and rejects dates past the history.
func (p *Portfolio) resolveDate(date time.Time) (time.Time, error) {
	if date.IsZero() {
		return p.maxDate, nil
	}
	date = calendar.Midnight(date)
	if !calendar.IsTradingDay(date) {
		date = calendar.PreviousTradingDay(date)
	}
	if date.After(p.maxDate) {
		return time.Time{}, fmt.Errorf("%w: date %s is greater than max date %s",
			apperrors.ErrDateOutOfRange, date.Format("2006-01-02"), p.maxDate.Format("2006-01-02"))
	}
	return date, nil
}

// metricField maps a view name to its history field.
func metricField(metric string) (func(*model.HistoryRow) float64, error) {
	switch metric {
	case "market_value":
		return func(r *model.HistoryRow) float64 { return r.MarketValue }, nil
	case "return":
		return func(r *model.HistoryRow) float64 { return r.Return }, nil
	case "cumulative_cost":
		return func(r *model.HistoryRow) float64 { return r.CumulativeCost }, nil
	case "realized":
		return func(r *model.HistoryRow) float64 { return r.Realized }, nil
	case "unrealized":
		return func(r *model.HistoryRow) float64 { return r.Unrealized }, nil
	case "cumulative_dividend":
		return func(r *model.HistoryRow) float64 { return r.CumulativeDividend }, nil
	case "cumulative_units":
		return func(r *model.HistoryRow) float64 { return r.CumulativeUnits }, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownMetric, metric)
	}
}

func filterOnOrBefore(rows []model.HistoryRow, date time.Time) []model.HistoryRow {
	var out []model.HistoryRow
	for _, row := range rows {
		if !row.Date.After(date) {
			out = append(out, row)
		}
	}
	return out
}

// historyTickers returns the distinct tickers in first-seen order.
func historyTickers(rows []model.HistoryRow) []model.Ticker {
	var tickers []model.Ticker
	seen := make(map[model.Ticker]bool)
	for _, row := range rows {
		if !seen[row.Ticker] {
			seen[row.Ticker] = true
			tickers = append(tickers, row.Ticker)
		}
	}
	return tickers
}

func isBenchmarkName(name string) bool {
	return model.ParseTicker(name).Kind == model.KindBenchmark
}
