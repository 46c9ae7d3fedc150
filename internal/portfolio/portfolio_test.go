package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/model"
	"github.com/jkoestner/folioflex/internal/testutil"
)

// newTestPortfolio builds a small portfolio: a 10000 deposit and a 10-share
// AAPL purchase on 2023-01-03, AAPL ramping 100 to 110 over six trading days,
// IVV flat at 400 as the benchmark.
func newTestPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	txs := testutil.StaticTransactions{
		testutil.NewTransaction("Cash").On("2023-01-03").Cash(10000).Build(),
		testutil.NewTransaction("AAPL").On("2023-01-03").Buy(10, 100).Build(),
	}
	prices := testutil.StaticPrices(append(
		testutil.RampSeries("AAPL", "2023-01-03", "2023-01-10", 100, 2),
		testutil.PriceSeries("IVV", "2023-01-03", "2023-01-10", 400)...,
	))
	p, err := New(context.Background(), Config{
		Name:       "test",
		Benchmarks: []string{"IVV"},
	}, txs, prices)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewPortfolio(t *testing.T) {
	p := newTestPortfolio(t)
	if p.Name() != "test" {
		t.Errorf("name = %q", p.Name())
	}
	if !p.MaxDate().Equal(testutil.Day("2023-01-10")) {
		t.Errorf("max date = %s, want 2023-01-10", p.MaxDate().Format("2006-01-02"))
	}
	if p.ChecksFailed() != 0 {
		t.Errorf("checks failed = %d, want clean", p.ChecksFailed())
	}
	tickers := p.Tickers()
	if len(tickers) != 2 {
		t.Errorf("tickers = %v, want Cash and AAPL", tickers)
	}
}

func TestNewPortfolioSourceError(t *testing.T) {
	fail := testutil.FailingSource{Err: errors.New("boom")}
	_, err := New(context.Background(), Config{Name: "test"}, fail, fail)
	if err == nil {
		t.Fatal("expected the source error to surface")
	}
}

func TestNewPortfolioNoTransactions(t *testing.T) {
	prices := testutil.StaticPrices(nil)
	_, err := New(context.Background(), Config{Name: "test"}, testutil.StaticTransactions{}, prices)
	if !errors.Is(err, apperrors.ErrNoTransactions) {
		t.Fatalf("expected ErrNoTransactions, got %v", err)
	}
}

func TestPerformanceLatest(t *testing.T) {
	p := newTestPortfolio(t)
	records, err := p.Performance(testutil.Day("0001-01-01"), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	records, err = p.Performance(p.MaxDate(), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}

	byTicker := make(map[string]model.PerformanceRecord)
	for _, rec := range records {
		byTicker[rec.Ticker.String()] = rec
	}
	for _, want := range []string{"AAPL", "Cash", "portfolio", "benchmark-IVV"} {
		if _, ok := byTicker[want]; !ok {
			t.Fatalf("missing %s record in %v", want, records)
		}
	}

	aapl := byTicker["AAPL"]
	if !approx(aapl.MarketValue, 1100) {
		t.Errorf("AAPL market value = %v, want 1100", aapl.MarketValue)
	}
	if !approx(aapl.Return, 100) {
		t.Errorf("AAPL return = %v, want 100", aapl.Return)
	}
	if math.Abs(aapl.DwrrPct-0.10) > 1e-6 {
		t.Errorf("AAPL dwrr = %v, want 0.10", aapl.DwrrPct)
	}
	if math.Abs(aapl.SimplePct-0.10) > 1e-6 {
		t.Errorf("AAPL simple return = %v, want 0.10", aapl.SimplePct)
	}

	cash := byTicker["Cash"]
	if !approx(cash.MarketValue, 9000) {
		t.Errorf("cash market value = %v, want 9000 after the purchase", cash.MarketValue)
	}

	pf := byTicker["portfolio"]
	if !approx(pf.MarketValue, 10100) {
		t.Errorf("portfolio market value = %v, want 10100", pf.MarketValue)
	}
	if !approx(pf.Cash, 9000) || !approx(pf.Equity, 1100) {
		t.Errorf("portfolio cash/equity = %v/%v, want 9000/1100", pf.Cash, pf.Equity)
	}

	// The full 10000 deposit went into IVV at 400. The AAPL purchase moved
	// money between holdings and does not touch the benchmark.
	bench := byTicker["benchmark-IVV"]
	if !approx(bench.CumulativeUnits, 25) {
		t.Errorf("benchmark units = %v, want 25", bench.CumulativeUnits)
	}
	if !approx(bench.MarketValue, 10000) {
		t.Errorf("benchmark market value = %v, want 10000", bench.MarketValue)
	}
}

func TestPerformanceIdempotent(t *testing.T) {
	p := newTestPortfolio(t)
	first, err := p.Performance(p.MaxDate(), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	second, err := p.Performance(p.MaxDate(), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}

	// NaN never compares equal, so compare through the JSON form, which
	// maps it to null.
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshaling first report: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshaling second report: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("repeated reports differ:\n%s\n%s", a, b)
	}
}

func TestPerformanceRecordsSorted(t *testing.T) {
	p := newTestPortfolio(t)
	records, err := p.Performance(p.MaxDate(), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Ticker.String() < records[i-1].Ticker.String() {
			t.Fatalf("records not sorted by ticker: %v", records)
		}
	}
}

func TestPerformanceDateOutOfRange(t *testing.T) {
	p := newTestPortfolio(t)
	_, err := p.Performance(testutil.Day("2024-01-10"), "")
	if !errors.Is(err, apperrors.ErrDateOutOfRange) {
		t.Fatalf("expected ErrDateOutOfRange, got %v", err)
	}
}

func TestPerformanceInvalidLookback(t *testing.T) {
	p := newTestPortfolio(t)
	_, err := p.Performance(p.MaxDate(), "quarter")
	if !errors.Is(err, apperrors.ErrInvalidLookback) {
		t.Fatalf("expected ErrInvalidLookback, got %v", err)
	}
}

func TestPerformanceWeekendDateSnaps(t *testing.T) {
	p := newTestPortfolio(t)
	// Saturday the 7th snaps back to Friday the 6th.
	records, err := p.Performance(testutil.Day("2023-01-07"), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	for _, rec := range records {
		if !rec.Date.Equal(testutil.Day("2023-01-06")) {
			t.Fatalf("record date = %s, want snapped 2023-01-06", rec.Date.Format("2006-01-02"))
		}
	}
}

func TestReturnPcts(t *testing.T) {
	p := newTestPortfolio(t)
	pcts, err := p.ReturnPcts(p.MaxDate(), "")
	if err != nil {
		t.Fatalf("ReturnPcts: %v", err)
	}
	aapl, ok := pcts["AAPL"]
	if !ok {
		t.Fatalf("missing AAPL in %v", pcts)
	}
	if math.Abs(aapl.DwrrPct-0.10) > 1e-6 {
		t.Errorf("AAPL dwrr = %v, want 0.10", aapl.DwrrPct)
	}
	if math.IsNaN(aapl.MdrrPct) {
		t.Errorf("AAPL mdrr should be set")
	}
	if _, ok := pcts["portfolio"]; !ok {
		t.Errorf("missing portfolio returns")
	}
}

func TestView(t *testing.T) {
	p := newTestPortfolio(t)
	view, err := p.View("market_value", "")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view) != 6 {
		t.Fatalf("got %d view rows, want 6 trading days", len(view))
	}
	for i := 1; i < len(view); i++ {
		if !view[i].Date.After(view[i-1].Date) {
			t.Fatalf("view not sorted oldest first")
		}
	}
	last := view[len(view)-1]
	if !approx(last.Values["AAPL"], 1100) {
		t.Errorf("AAPL value = %v, want 1100", last.Values["AAPL"])
	}
	// The portfolio column is recomputed as the sum of the real tickers,
	// excluding the benchmark.
	if !approx(last.Values["portfolio"], 10100) {
		t.Errorf("portfolio value = %v, want 10100", last.Values["portfolio"])
	}
}

func TestViewUnknownMetric(t *testing.T) {
	p := newTestPortfolio(t)
	_, err := p.View("sharpe", "")
	if !errors.Is(err, apperrors.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestTransactionsHistoryIdentities(t *testing.T) {
	p := newTestPortfolio(t)
	for _, row := range p.TransactionsHistory() {
		if row.Ticker.Kind != model.KindReal || math.IsNaN(row.MarketValue) {
			continue
		}
		cumCost := row.CumulativeCost
		if math.IsNaN(cumCost) {
			cumCost = 0
		}
		if !approx(row.Return, row.MarketValue+cumCost) {
			t.Errorf("%s %s: return %v != mv %v + cost %v", row.Ticker,
				row.Date.Format("2006-01-02"), row.Return, row.MarketValue, cumCost)
		}
	}
}

func TestFundPortfolio(t *testing.T) {
	// A fund with no market feed gets its prices from the transactions.
	txs := testutil.StaticTransactions{
		testutil.NewTransaction("BLKRK").On("2023-01-03").Buy(100, 10).Build(),
		testutil.NewTransaction("BLKRK").On("2023-01-09").Buy(100, 12).Build(),
	}
	p, err := New(context.Background(), Config{
		Name:  "funds",
		Funds: []string{"BLKRK"},
	}, txs, testutil.StaticPrices(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	records, err := p.Performance(p.MaxDate(), "")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	var fund model.PerformanceRecord
	for _, rec := range records {
		if rec.Ticker == model.Real("BLKRK") {
			fund = rec
		}
	}
	if !approx(fund.CumulativeUnits, 200) {
		t.Errorf("fund units = %v, want 200", fund.CumulativeUnits)
	}
	if !approx(fund.MarketValue, 200*12) {
		t.Errorf("fund market value = %v, want priced at the last transaction", fund.MarketValue)
	}
}
