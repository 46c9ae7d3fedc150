package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/jkoestner/folioflex/internal/model"
	"github.com/jkoestner/folioflex/internal/testutil"
)

func approx(got, want float64) bool {
	if math.IsNaN(want) {
		return math.IsNaN(got)
	}
	return math.Abs(got-want) < 1e-9
}

func rowOn(t *testing.T, rows []model.HistoryRow, ticker model.Ticker, date time.Time) model.HistoryRow {
	t.Helper()
	for _, row := range rows {
		if row.Ticker == ticker && row.Date.Equal(date) {
			return row
		}
	}
	t.Fatalf("no row for %s on %s", ticker, date.Format("2006-01-02"))
	return model.HistoryRow{}
}

func TestCalcMetricsBuyAndSell(t *testing.T) {
	// Buy 10 @ 100, price rises to 140, sell 5 @ 140.
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), LastPrice: 120},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-05"), Units: -5, Cost: 700, Price: 140, LastPrice: 140},
	}
	out := calcMetrics(rows)

	day1 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-03"))
	if !approx(day1.AveragePrice, 100) {
		t.Errorf("day1 average price = %v, want 100", day1.AveragePrice)
	}
	if !approx(day1.MarketValue, 1000) {
		t.Errorf("day1 market value = %v, want 1000", day1.MarketValue)
	}
	if !approx(day1.Return, 0) {
		t.Errorf("day1 return = %v, want 0 on the purchase day", day1.Return)
	}

	day2 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-04"))
	if !approx(day2.MarketValue, 1200) {
		t.Errorf("day2 market value = %v, want 1200", day2.MarketValue)
	}
	if !approx(day2.Return, 200) {
		t.Errorf("day2 return = %v, want 200", day2.Return)
	}
	if !approx(day2.Unrealized, 200) {
		t.Errorf("day2 unrealized = %v, want 200", day2.Unrealized)
	}

	day3 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-05"))
	if !approx(day3.CumulativeUnits, 5) {
		t.Errorf("day3 cumulative units = %v, want 5", day3.CumulativeUnits)
	}
	if !approx(day3.AveragePrice, 100) {
		t.Errorf("day3 average price = %v, want unchanged 100 after the sale", day3.AveragePrice)
	}
	if !approx(day3.MarketValue, 700) {
		t.Errorf("day3 market value = %v, want 700", day3.MarketValue)
	}
	if !approx(day3.Return, 400) {
		t.Errorf("day3 return = %v, want 400", day3.Return)
	}
	if !approx(day3.Unrealized, 200) {
		t.Errorf("day3 unrealized = %v, want 200", day3.Unrealized)
	}
	if !approx(day3.Realized, 200) {
		t.Errorf("day3 realized = %v, want 200", day3.Realized)
	}
}

func TestCalcMetricsAveragePriceReweightsOnBuy(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), Units: 10, Cost: -1200, Price: 120, LastPrice: 120},
	}
	out := calcMetrics(rows)
	day2 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-04"))
	if !approx(day2.AveragePrice, 110) {
		t.Errorf("average price = %v, want weighted 110", day2.AveragePrice)
	}
}

func TestCalcMetricsClosedPosition(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), Units: -10, Cost: 1100, Price: 110, LastPrice: 110},
	}
	out := calcMetrics(rows)
	day2 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-04"))
	if !approx(day2.CumulativeUnits, math.NaN()) && !approx(day2.CumulativeUnits, 0) {
		t.Errorf("cumulative units = %v, want flat", day2.CumulativeUnits)
	}
	if !approx(day2.AveragePrice, math.NaN()) && !approx(day2.AveragePrice, 0) {
		t.Errorf("average price = %v, want zeroed on close", day2.AveragePrice)
	}
	if !approx(day2.Return, 100) {
		t.Errorf("return = %v, want realized 100", day2.Return)
	}
	if !approx(day2.Realized, 100) {
		t.Errorf("realized = %v, want 100", day2.Realized)
	}
}

func TestCalcMetricsDividendInCostBasis(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), Dividend: 12, LastPrice: 100},
	}
	out := calcMetrics(rows)
	day2 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-04"))
	if !approx(day2.CumulativeDividend, 12) {
		t.Errorf("cumulative dividend = %v, want 12", day2.CumulativeDividend)
	}
	if !approx(day2.CumulativeCost, -988) {
		t.Errorf("cumulative cost = %v, want -988 (dividend offsets cost)", day2.CumulativeCost)
	}
	if !approx(day2.Return, 12) {
		t.Errorf("return = %v, want the dividend 12", day2.Return)
	}
	if !approx(day2.Realized, 0) && !approx(day2.Realized, math.NaN()) {
		t.Errorf("realized = %v, want no realized gain from the dividend", day2.Realized)
	}
}

func TestCalcMetricsBlanksRowsBeforeFirstFlow(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
	}
	out := calcMetrics(rows)
	day1 := rowOn(t, out, model.Real("AAPL"), testutil.Day("2023-01-03"))
	if !math.IsNaN(day1.MarketValue) || !math.IsNaN(day1.Return) || !math.IsNaN(day1.CumulativeCost) {
		t.Errorf("pre-flow row should be blanked to NaN, got mv=%v return=%v cost=%v",
			day1.MarketValue, day1.Return, day1.CumulativeCost)
	}
}

func TestCalcMetricsCashAveragePrice(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real(model.CashTicker), Date: testutil.Day("2023-01-03"), Units: 1000, Cost: -1000, Price: 1, LastPrice: 1},
	}
	out := calcMetrics(rows)
	if got := out[0].AveragePrice; !approx(got, 1) {
		t.Errorf("cash average price = %v, want pinned 1", got)
	}
	if !approx(out[0].MarketValue, 1000) {
		t.Errorf("cash market value = %v, want 1000", out[0].MarketValue)
	}
}

func TestCalcMetricsIdentities(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), Dividend: 10, LastPrice: 105},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-05"), Units: -4, Cost: 480, Price: 120, LastPrice: 120},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-06"), LastPrice: 118},
	}
	out := calcMetrics(rows)
	for _, row := range out {
		if math.IsNaN(row.MarketValue) {
			continue
		}
		cumCost := row.CumulativeCost
		if math.IsNaN(cumCost) {
			cumCost = 0
		}
		if !approx(row.Return, row.MarketValue+cumCost) {
			t.Errorf("%s: return %v != mv %v + cost %v", row.Date.Format("2006-01-02"),
				row.Return, row.MarketValue, cumCost)
		}
		cumDiv := row.CumulativeDividend
		if math.IsNaN(cumDiv) {
			cumDiv = 0
		}
		if !approx(row.Realized, row.Return-row.Unrealized-cumDiv) {
			t.Errorf("%s: realized identity violated", row.Date.Format("2006-01-02"))
		}
	}
}

func TestCalcMetricsSortsNewestFirst(t *testing.T) {
	rows := []model.HistoryRow{
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-05"), LastPrice: 120},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-03"), Units: 10, Cost: -1000, Price: 100, LastPrice: 100},
		{Ticker: model.Real("AAPL"), Date: testutil.Day("2023-01-04"), LastPrice: 110},
	}
	out := calcMetrics(rows)
	for i := 1; i < len(out); i++ {
		if out[i].Date.After(out[i-1].Date) {
			t.Fatalf("rows not sorted newest first: %v before %v", out[i-1].Date, out[i].Date)
		}
	}
	// The fold must still run oldest first: the later rows carry the position.
	latest := out[0]
	if !approx(latest.CumulativeUnits, 10) {
		t.Errorf("latest cumulative units = %v, want 10", latest.CumulativeUnits)
	}
	if !approx(latest.MarketValue, 1200) {
		t.Errorf("latest market value = %v, want 1200", latest.MarketValue)
	}
}
