package portfolio

import (
	"math"
	"sort"

	"github.com/jkoestner/folioflex/internal/model"
)

// calcMetrics fills the derived metric fields of a merged transaction history.
//
// Each ticker is an independent fold in ascending date order: running sums for
// units, cost and dividend, then the average-price recurrence, then the
// valuation identities
//
//	market_value = cumulative_units * last_price
//	return       = market_value + cumulative_cost
//	unrealized   = market_value - average_price * cumulative_units
//	realized     = return - unrealized - cumulative_dividend
//
// Dividends are added to the cost basis (cumulative_cost includes them) so the
// return formulas treat them equivalently to reinvestment. Metric fields on
// dates before a ticker's first cash flow are set to NaN to avoid spurious
// zero-return noise before a position opens. The input order is not assumed;
// the output is sorted descending by (ticker, date).
func calcMetrics(rows []model.HistoryRow) []model.HistoryRow {
	byTicker := make(map[string][]int)
	var order []string
	for i, row := range rows {
		key := row.Ticker.String()
		if _, ok := byTicker[key]; !ok {
			order = append(order, key)
		}
		byTicker[key] = append(byTicker[key], i)
	}

	for _, key := range order {
		idx := byTicker[key]
		// ascending date order is required for the recurrences
		ascending(rows, idx)
		foldTicker(rows, idx)
	}

	sortHistoryDesc(rows)
	return rows
}

// foldTicker runs the running sums and the average-price recurrence over one
// ticker's rows, given index positions in ascending date order.
func foldTicker(rows []model.HistoryRow, idx []int) {
	var cumUnits, cumCostExDiv, cumDiv float64
	avg := math.NaN() // forward-filled across zero-unit rows
	prevAvg, prevCumUnits := 0.0, 0.0
	seenTrade := false

	for _, i := range idx {
		row := &rows[i]
		cumUnits += row.Units
		cumCostExDiv += row.Cost
		cumDiv += row.Dividend
		cumCost := cumCostExDiv + cumDiv

		row.CumulativeUnits = cumUnits
		row.CumulativeCostWithoutDividend = cumCostExDiv
		row.CumulativeDividend = cumDiv
		row.CumulativeCost = cumCost

		// Average cost basis: set on the first trade, zeroed when the
		// position closes, frozen across sales, re-weighted on buys.
		if row.Units != 0 {
			switch {
			case !seenTrade:
				avg = row.Price
				seenTrade = true
			case cumUnits == 0:
				avg = 0
			case row.Units <= 0:
				avg = prevAvg
			default:
				avg = (row.Price*row.Units + prevCumUnits*prevAvg) / cumUnits
			}
			prevAvg, prevCumUnits = avg, cumUnits
		}

		rowAvg := avg
		if cumUnits == 0 {
			rowAvg = 0
		}
		if row.Ticker.IsCash() {
			rowAvg = 1
		}
		row.AveragePrice = rowAvg

		row.MarketValue = cumUnits * row.LastPrice
		row.Return = row.MarketValue + cumCost
		row.Unrealized = row.MarketValue - rowAvg*cumUnits
		row.Realized = row.Return - row.Unrealized - cumDiv

		// no cash flow yet: blank the metrics instead of reporting zeros
		if cumCost == 0 && row.Dividend == 0 {
			zeroToNaN(&row.AveragePrice)
			zeroToNaN(&row.MarketValue)
			zeroToNaN(&row.Return)
			zeroToNaN(&row.Unrealized)
			zeroToNaN(&row.Realized)
			zeroToNaN(&row.CumulativeDividend)
			zeroToNaN(&row.CumulativeUnits)
		}
		if row.Dividend == 0 {
			zeroToNaN(&row.CumulativeCost)
		}
	}
}

func zeroToNaN(v *float64) {
	if *v == 0 {
		*v = math.NaN()
	}
}

// ascending sorts a ticker's index positions by date, oldest first, reordering
// the backing rows in place.
func ascending(rows []model.HistoryRow, idx []int) {
	group := make([]model.HistoryRow, len(idx))
	for n, i := range idx {
		group[n] = rows[i]
	}
	sort.SliceStable(group, func(a, b int) bool {
		return group[a].Date.Before(group[b].Date)
	})
	for n, i := range idx {
		rows[i] = group[n]
	}
}
