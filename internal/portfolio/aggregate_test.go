package portfolio

import (
	"math"
	"testing"

	"github.com/jkoestner/folioflex/internal/model"
	"github.com/jkoestner/folioflex/internal/testutil"
)

func TestAddPortfolioRowsSumsPerDate(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("MSFT"), Date: testutil.Day("2023-01-03"), Units: 5, Cost: -1000, Price: 200, LastPrice: 200},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), LastPrice: 110},
		{Ticker: model.Real("MSFT"), Date: testutil.Day("2023-01-04"), LastPrice: 210},
	}
	rows = calcMetrics(rows)
	out := addPortfolioRows(rows)

	day2 := rowOn(t, out, model.Portfolio(), testutil.Day("2023-01-04"))
	if !approx(day2.MarketValue, 10*110+5*210) {
		t.Errorf("portfolio market value = %v, want 2150", day2.MarketValue)
	}
	if !approx(day2.Return, 150) {
		t.Errorf("portfolio return = %v, want 150", day2.Return)
	}
	if !math.IsNaN(day2.AveragePrice) || !math.IsNaN(day2.LastPrice) {
		t.Errorf("per-share fields on the aggregate should be NaN")
	}
}

func TestAddPortfolioRowsSkipsBenchmarks(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
	}
	rows = calcMetrics(rows)
	rows = append(rows, model.HistoryRow{
		Ticker: model.Benchmark("IVV"), Date: testutil.Day("2023-01-03"),
		MarketValue: 5000, Return: 500, CumulativeCost: -4500,
	})
	out := addPortfolioRows(rows)
	agg := rowOn(t, out, model.Portfolio(), testutil.Day("2023-01-03"))
	if !approx(agg.MarketValue, 1000) {
		t.Errorf("aggregate market value = %v, want 1000 excluding the benchmark", agg.MarketValue)
	}
}

func TestAddPortfolioRowsPortfolioEqualsTickerSum(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("Cash"), Date: testutil.Day("2023-01-03"), Units: 1000, Cost: -1000, Price: 1, LastPrice: 1},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), Dividend: 10, LastPrice: 105},
		{Ticker: model.Real("Cash"), Date: testutil.Day("2023-01-04"), LastPrice: 1},
	}
	rows = calcMetrics(rows)
	out := addPortfolioRows(rows)

	for _, date := range []string{"2023-01-03", "2023-01-04"} {
		d := testutil.Day(date)
		agg := rowOn(t, out, model.Portfolio(), d)
		sumMV, sumReturn := 0.0, 0.0
		for _, row := range out {
			if row.Ticker.Kind != model.KindReal || !row.Date.Equal(d) {
				continue
			}
			if !math.IsNaN(row.MarketValue) {
				sumMV += row.MarketValue
			}
			if !math.IsNaN(row.Return) {
				sumReturn += row.Return
			}
		}
		if !approx(agg.MarketValue, sumMV) {
			t.Errorf("%s: aggregate mv %v != ticker sum %v", date, agg.MarketValue, sumMV)
		}
		if !approx(agg.Return, sumReturn) {
			t.Errorf("%s: aggregate return %v != ticker sum %v", date, agg.Return, sumReturn)
		}
	}
}
