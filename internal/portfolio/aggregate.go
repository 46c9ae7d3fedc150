package portfolio

import (
	"math"
	"time"

	"github.com/jkoestner/folioflex/internal/model"
)

// addPortfolioRows appends a synthetic "portfolio" ticker to the history: one
// row per date holding the sum of every real ticker's metrics on that date.
// Benchmark rows are excluded so the aggregate reflects only actual holdings.
// NaN values are skipped when summing. Per-share fields such as price and
// average price have no meaning for the aggregate and are left as NaN.
func addPortfolioRows(rows []model.HistoryRow) []model.HistoryRow {
	type bucket struct {
		cost, cumCost, cumCostExDiv  float64
		marketValue, ret             float64
		unrealized, realized         float64
		dividend, cumDiv             float64
	}
	byDate := make(map[time.Time]*bucket)
	var dates []time.Time

	add := func(acc *float64, v float64) {
		if !math.IsNaN(v) {
			*acc += v
		}
	}

	for _, row := range rows {
		if row.Ticker.Kind == model.KindBenchmark || row.Ticker.Kind == model.KindPortfolio {
			continue
		}
		b, ok := byDate[row.Date]
		if !ok {
			b = &bucket{}
			byDate[row.Date] = b
			dates = append(dates, row.Date)
		}
		add(&b.cost, row.Cost)
		add(&b.cumCost, row.CumulativeCost)
		add(&b.cumCostExDiv, row.CumulativeCostWithoutDividend)
		add(&b.marketValue, row.MarketValue)
		add(&b.ret, row.Return)
		add(&b.unrealized, row.Unrealized)
		add(&b.realized, row.Realized)
		add(&b.dividend, row.Dividend)
		add(&b.cumDiv, row.CumulativeDividend)
	}

	nan := math.NaN()
	for _, date := range dates {
		b := byDate[date]
		rows = append(rows, model.HistoryRow{
			Ticker:                        model.Portfolio(),
			Date:                          date,
			Units:                         nan,
			Cost:                          b.cost,
			Price:                         nan,
			Dividend:                      b.dividend,
			LastPrice:                     nan,
			CumulativeUnits:               nan,
			CumulativeCost:                b.cumCost,
			CumulativeCostWithoutDividend: b.cumCostExDiv,
			CumulativeDividend:            b.cumDiv,
			AveragePrice:                  nan,
			MarketValue:                   b.marketValue,
			Return:                        b.ret,
			Unrealized:                    b.unrealized,
			Realized:                      b.realized,
		})
	}

	sortHistoryDesc(rows)
	return rows
}
