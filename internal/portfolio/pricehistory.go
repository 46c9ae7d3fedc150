package portfolio

import (
	"log"
	"slices"
	"sort"
	"time"

	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// PriceHistoryOptions controls price-history construction.
type PriceHistoryOptions struct {
	// Funds lists tickers with no market quote (mutual funds, private funds)
	// whose price series is synthesized from transaction prices.
	Funds []string
	// Delisted lists tickers no longer quoted; treated like funds.
	Delisted []string
}

// BuildPriceHistory normalizes a raw price feed into the canonical long table.
//
// Market rows pass through. Fund and delisted tickers get a full date grid
// with transaction prices forward-filled. A constant 1.0 series is added for
// the Cash ticker. The split factor (0 treated as 1) is accumulated into a
// per-ticker running product walking back from the most recent date, so
// CumulativeSplit converts historical unit counts into current share counts.
//
// Returns the table sorted descending by (ticker, date) along with the number
// of tickers that are missing price coverage after their first valid date,
// which signals a delisted or illiquid instrument needing classification.
func BuildPriceHistory(feed []model.PricePoint, txs []model.Transaction, opts PriceHistoryOptions) ([]model.PricePoint, int) {
	for i := range feed {
		feed[i].Date = calendar.Midnight(feed[i].Date)
		if feed[i].StockSplit == 0 {
			feed[i].StockSplit = 1
		}
	}

	dates := templateDates(feed, txs)
	tickers := uniqueTickers(txs)
	history := slices.Clone(feed)

	synthetic := make([]string, 0)
	for _, tick := range tickers {
		if slices.Contains(opts.Funds, tick) || slices.Contains(opts.Delisted, tick) {
			synthetic = append(synthetic, tick)
		}
	}
	if len(synthetic) > 0 {
		log.Printf("no market feed for %v; using transaction prices to develop price history", synthetic)
		for _, tick := range synthetic {
			history = append(history, synthesizeSeries(tick, dates, txs)...)
		}
	}

	if slices.Contains(tickers, model.CashTicker) {
		log.Printf("adding price history for cash transactions")
		for _, d := range dates {
			history = append(history, model.PricePoint{
				Ticker: model.CashTicker, Date: d, LastPrice: 1, StockSplit: 1, Synthesized: true,
			})
		}
	}

	sortPricesDesc(history)
	accumulateSplits(history)
	warnings := checkCoverage(history, dates, synthetic)

	return history, warnings
}

// templateDates collects the distinct feed dates; when the feed is empty (an
// all-fund portfolio) the trading days spanning the transactions are used.
func templateDates(feed []model.PricePoint, txs []model.Transaction) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, p := range feed {
		if !seen[p.Date] {
			seen[p.Date] = true
			dates = append(dates, p.Date)
		}
	}
	if len(dates) == 0 && len(txs) > 0 {
		minDate, maxDate := txs[0].Date, txs[0].Date
		for _, tx := range txs {
			if tx.Date.Before(minDate) {
				minDate = tx.Date
			}
			if tx.Date.After(maxDate) {
				maxDate = tx.Date
			}
		}
		return calendar.TradingDays(minDate, maxDate)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// synthesizeSeries builds a forward-filled price series for a ticker with no
// market feed, seeded from its transaction prices.
func synthesizeSeries(ticker string, dates []time.Time, txs []model.Transaction) []model.PricePoint {
	txPrice := make(map[time.Time]float64)
	for _, tx := range txs {
		if tx.Ticker != ticker {
			continue
		}
		if p, ok := txPrice[tx.Date]; !ok || tx.Price < p {
			txPrice[tx.Date] = tx.Price
		}
	}

	grid := slices.Clone(dates)
	for d := range txPrice {
		if !slices.ContainsFunc(grid, d.Equal) {
			grid = append(grid, d)
		}
	}
	sort.Slice(grid, func(i, j int) bool { return grid[i].Before(grid[j]) })

	series := make([]model.PricePoint, 0, len(grid))
	last := 0.0
	for _, d := range grid {
		if p, ok := txPrice[d]; ok {
			last = p
		}
		series = append(series, model.PricePoint{
			Ticker: ticker, Date: d, LastPrice: last, StockSplit: 1, Synthesized: true,
		})
	}
	return series
}

// accumulateSplits fills CumulativeSplit as a per-ticker running product of
// the split factor. Requires descending (ticker, date) order: the factor is 1
// at the most recent date and grows as splits are crossed going back in time.
func accumulateSplits(history []model.PricePoint) {
	product := 1.0
	ticker := ""
	for i := range history {
		if history[i].Ticker != ticker {
			ticker = history[i].Ticker
			product = 1.0
		}
		product *= history[i].StockSplit
		history[i].CumulativeSplit = product
	}
}

// checkCoverage warns about market tickers missing prices after their first
// valid date and returns the count of affected tickers.
func checkCoverage(history []model.PricePoint, dates []time.Time, synthetic []string) int {
	covered := make(map[string]map[time.Time]bool)
	first := make(map[string]time.Time)
	for _, p := range history {
		if slices.Contains(synthetic, p.Ticker) || p.Synthesized {
			continue
		}
		if covered[p.Ticker] == nil {
			covered[p.Ticker] = make(map[time.Time]bool)
		}
		if p.LastPrice != 0 {
			covered[p.Ticker][p.Date] = true
			if f, ok := first[p.Ticker]; !ok || p.Date.Before(f) {
				first[p.Ticker] = p.Date
			}
		}
	}

	warnings := 0
	for ticker, dateSet := range covered {
		start, ok := first[ticker]
		if !ok {
			continue
		}
		for _, d := range dates {
			if d.Before(start) || dateSet[d] {
				continue
			}
			log.Printf("WARN: missing price history for %s, first noticed on %s; "+
				"most likely the ticker is delisted or not available in stock exchanges",
				ticker, d.Format("2006-01-02"))
			warnings++
			break
		}
	}
	return warnings
}

func sortPricesDesc(history []model.PricePoint) {
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].Ticker != history[j].Ticker {
			return history[i].Ticker < history[j].Ticker
		}
		return history[i].Date.After(history[j].Date)
	})
}
