package portfolio

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/jkoestner/folioflex/internal/model"
)

// returnFlow is one dated cash flow used by the return calculations. The
// amount column feeds the combined equity-plus-dividend return; divAmount
// isolates the dividend contribution.
type returnFlow struct {
	date      time.Time
	amount    float64
	divAmount float64
}

// calcReturnPcts computes the dollar weighted and Modified Dietz returns for
// one ticker from an already filtered history, as of the given date.
//
// The cash-flow series is built from three pieces: an entry flow at the start
// of the window (the cumulative cost when the position opened inside the
// window, otherwise the negated market value carried in), the interim cost and
// dividend flows, and a terminal flow of market value plus cumulative
// dividends. The dividend-only series replaces the terminal flow with the
// dividend yield against cost so the income contribution can be reported on
// its own.
//
// Fields stay NaN when a return is undefined: no flows at all, a single zero
// flow, or a series without both positive and negative amounts.
func calcReturnPcts(rows []model.HistoryRow, ticker model.Ticker, date time.Time) model.ReturnPcts {
	nan := math.NaN()
	pcts := model.ReturnPcts{
		DwrrPct:       nan,
		DwrrAnnPct:    nan,
		DivDwrrPct:    nan,
		DivDwrrAnnPct: nan,
		MdrrPct:       nan,
		MdrrAnnPct:    nan,
	}

	window := returnWindow(rows, ticker, date)
	if len(window) == 0 {
		return pcts
	}
	flows := buildReturnFlows(window, date)
	if len(flows) == 0 {
		return pcts
	}
	if len(flows) == 1 && flows[0].amount == 0 {
		return pcts
	}

	minAmt, maxAmt := flowRange(flows, false)
	if !(minAmt < 0 && 0 < maxAmt) {
		log.Printf("WARN: the flows for %s as of %s do not change sign (min %v, max %v), cannot calculate return",
			ticker, date.Format("2006-01-02"), minAmt, maxAmt)
		return pcts
	}
	minDiv, maxDiv := flowRange(flows, true)
	if !(minDiv < 0 && 0 < maxDiv) && !(minDiv == 0 && maxDiv == 0) {
		log.Printf("WARN: the dividend flows for %s do not change sign, cannot calculate return", ticker)
		return pcts
	}

	start := flows[0].date
	end := flows[len(flows)-1].date
	days := int(end.Sub(start).Hours() / 24)

	// annualized rates explode on short windows, so anything past the
	// ceiling is reported non-annualized only
	const maxPct = 1e20

	dates := make([]time.Time, len(flows))
	amounts := make([]float64, len(flows))
	divAmounts := make([]float64, len(flows))
	for i, f := range flows {
		dates[i] = f.date
		amounts[i] = f.amount
		divAmounts[i] = f.divAmount
	}

	rate, ok := xirr(dates, amounts)
	switch {
	case !ok:
		log.Printf("WARN: could not solve the rate of return for %s, falling back to simple return", ticker)
		entry := flows[0].amount
		terminal := flows[len(flows)-1].amount
		pcts.DwrrPct = (-terminal - entry) / entry
	case rate > maxPct:
		log.Printf("WARN: the rate of return for %s is greater than %v", ticker, maxPct)
		pcts.DwrrPct = math.Pow(1+rate, float64(days)/365) - 1
	default:
		pcts.DwrrPct = math.Pow(1+rate, float64(days)/365) - 1
		pcts.DwrrAnnPct = rate
	}

	divRate, ok := xirr(dates, divAmounts)
	switch {
	case !ok:
		// no dividend activity worth reporting
	case divRate > maxPct:
		log.Printf("WARN: the dividend rate of return for %s is greater than %v", ticker, maxPct)
		pcts.DivDwrrPct = math.Pow(1+divRate, float64(days)/365) - 1
	default:
		pcts.DivDwrrPct = math.Pow(1+divRate, float64(days)/365) - 1
		pcts.DivDwrrAnnPct = divRate
	}

	// Modified Dietz weights each flow by the share of the window remaining
	// after it lands.
	var total, weighted float64
	for _, f := range flows {
		elapsed := f.date.Sub(start).Hours() / 24
		weight := (float64(days) - elapsed) / float64(days)
		total += f.amount
		weighted += f.amount * weight
	}
	mdrr := total / -weighted
	pcts.MdrrPct = mdrr
	if !(mdrr > maxPct) && !(mdrr < -1) {
		pcts.MdrrAnnPct = math.Pow(1+mdrr, 365/float64(days)) - 1
	}

	return pcts
}

// returnWindow selects the ticker's rows at or before date, ascending, starting
// from the earliest date with a nonzero market value. An all-zero market value
// series has nothing to measure and yields an empty window.
func returnWindow(rows []model.HistoryRow, ticker model.Ticker, date time.Time) []model.HistoryRow {
	var window []model.HistoryRow
	for _, row := range rows {
		if row.Ticker == ticker && !row.Date.After(date) {
			window = append(window, row)
		}
	}
	sort.SliceStable(window, func(a, b int) bool {
		return window[a].Date.Before(window[b].Date)
	})

	total := 0.0
	begin := -1
	for i, row := range window {
		if math.IsNaN(row.MarketValue) {
			continue
		}
		total += row.MarketValue
		if begin == -1 && row.MarketValue != 0 {
			begin = i
		}
	}
	if total == 0 || begin == -1 {
		return nil
	}
	return window[begin:]
}

// buildReturnFlows turns a window of history rows into the dated cash flows
// for the return solvers. The window must be ascending by date.
func buildReturnFlows(window []model.HistoryRow, date time.Time) []returnFlow {
	minDate := window[0].Date
	var flows []returnFlow
	for _, row := range window {
		if row.Date.Equal(minDate) {
			f := returnFlow{date: row.Date}
			if row.Units == row.CumulativeUnits {
				f.amount = row.CumulativeCost
			} else {
				f.amount = -row.MarketValue
			}
			if row.Cost == 0 {
				f.divAmount = row.CumulativeCostWithoutDividend - row.CumulativeDividend
			} else {
				f.divAmount = row.CumulativeCost
			}
			flows = append(flows, f)
		}
	}
	for _, row := range window {
		if row.Date.After(minDate) && !row.Date.After(date) && (row.Cost != 0 || row.Dividend != 0) {
			flows = append(flows, returnFlow{date: row.Date, amount: row.Cost, divAmount: row.Cost})
		}
	}
	for _, row := range window {
		if row.Date.Equal(date) {
			flows = append(flows, returnFlow{
				date:      row.Date,
				amount:    row.MarketValue + row.CumulativeDividend,
				divAmount: -row.CumulativeCostWithoutDividend + row.CumulativeDividend,
			})
		}
	}
	for i := range flows {
		if math.IsNaN(flows[i].amount) {
			flows[i].amount = 0
		}
		if math.IsNaN(flows[i].divAmount) {
			flows[i].divAmount = 0
		}
	}
	sort.SliceStable(flows, func(a, b int) bool {
		return flows[a].date.Before(flows[b].date)
	})
	return flows
}

func flowRange(flows []returnFlow, div bool) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, f := range flows {
		v := f.amount
		if div {
			v = f.divAmount
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
