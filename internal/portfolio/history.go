package portfolio

import (
	"log"
	"slices"
	"sort"
	"time"

	"github.com/jkoestner/folioflex/internal/model"
)

// addCashTransactions synthesizes the cash legs implied by trading activity.
//
// Every non-cash transaction consumes or releases cash, so it is mirrored as a
// Cash-ticker row whose units equal the trade's cost. Cash dividends are
// treated as interest: they get a zero-cost companion leg so the units show up
// in the cash market value without double-counting cost. Finally the cost of
// all cash rows (except DIVIDEND rows, which only feed the dividend column) is
// flipped so the cash position behaves like a bought instrument: units in,
// cost out.
func addCashTransactions(txs []model.Transaction, otherFields []string) []model.Transaction {
	out := slices.Clone(txs)
	hasCash := slices.Contains(uniqueTickers(txs), model.CashTicker)

	if hasCash {
		for _, tx := range txs {
			if tx.Ticker == model.CashTicker {
				continue
			}
			leg := tx
			leg.Ticker = model.CashTicker
			leg.Type = model.TypeCash
			leg.Units = tx.Cost
			leg.Price = 1
			out = append(out, leg)
		}
	}

	for _, tx := range txs {
		if tx.Ticker == model.CashTicker && tx.Type == model.TypeDividend {
			leg := tx
			leg.Type = model.TypeCash
			leg.Cost = 0
			out = append(out, leg)
		}
	}

	for i := range out {
		if out[i].Ticker == model.CashTicker && out[i].Type != model.TypeDividend {
			out[i].Cost = -out[i].Cost
		}
	}
	return out
}

// splitAdjust multiplies historical unit counts by the cumulative split factor
// so they are expressed in current shares. DIVIDEND rows carry cash amounts in
// their units and are left alone.
func splitAdjust(txs []model.Transaction, history []model.PricePoint) []model.Transaction {
	factor := make(map[string]map[time.Time]float64)
	for _, p := range history {
		if factor[p.Ticker] == nil {
			factor[p.Ticker] = make(map[time.Time]float64)
		}
		factor[p.Ticker][p.Date] = p.CumulativeSplit
	}

	adjusted := make(map[string]bool)
	out := slices.Clone(txs)
	for i := range out {
		f, ok := factor[out[i].Ticker][out[i].Date]
		if !ok || f == 0 {
			f = 1
		}
		if f != 1 && out[i].Type != model.TypeDividend {
			out[i].Units *= f
			adjusted[out[i].Ticker] = true
		}
	}
	if len(adjusted) > 0 {
		ticks := make([]string, 0, len(adjusted))
		for t := range adjusted {
			ticks = append(ticks, t)
		}
		sort.Strings(ticks)
		log.Printf("adjusted the following tickers for stock splits: %v", ticks)
	}
	return out
}

// extractDividends aggregates DIVIDEND rows into a per-(ticker, date) dividend
// amount. Cash dividends are interest, already counted in the cash market
// value, so they contribute zero.
func extractDividends(txs []model.Transaction) map[string]map[time.Time]float64 {
	dividends := make(map[string]map[time.Time]float64)
	total := 0.0
	for _, tx := range txs {
		if tx.Type != model.TypeDividend {
			continue
		}
		amount := tx.Cost
		if tx.Ticker == model.CashTicker {
			amount = 0
		}
		if dividends[tx.Ticker] == nil {
			dividends[tx.Ticker] = make(map[time.Time]float64)
		}
		dividends[tx.Ticker][tx.Date] += amount
		total += amount
	}
	if total == 0 {
		log.Printf("there are no dividends added to portfolio")
	} else {
		log.Printf("adding %v of dividends to portfolio", total)
	}
	return dividends
}

// mergeHistory outer-joins grouped transactions onto the price history per
// (ticker, date), forward-filling last prices and attaching dividend flows.
// Zero initial prices are patched from the transaction price, which handles
// acquired or renamed tickers whose feed starts late.
func mergeHistory(
	txs []model.Transaction,
	history []model.PricePoint,
	dividends map[string]map[time.Time]float64,
	otherFields []string,
) []model.HistoryRow {
	// Drop dividend rows; their flows ride along in the dividend column.
	var trades []model.Transaction
	for _, tx := range txs {
		if tx.Type != model.TypeDividend {
			trades = append(trades, tx)
		}
	}
	trades = groupByTickerDate(trades, otherFields)

	tickers := uniqueTickers(trades)
	txByTicker := make(map[string]map[time.Time]model.Transaction)
	for _, tx := range trades {
		if txByTicker[tx.Ticker] == nil {
			txByTicker[tx.Ticker] = make(map[time.Time]model.Transaction)
		}
		txByTicker[tx.Ticker][tx.Date] = tx
	}
	priceByTicker := make(map[string]map[time.Time]float64)
	for _, p := range history {
		if !slices.Contains(tickers, p.Ticker) {
			continue
		}
		if priceByTicker[p.Ticker] == nil {
			priceByTicker[p.Ticker] = make(map[time.Time]float64)
		}
		priceByTicker[p.Ticker][p.Date] = p.LastPrice
	}

	var rows []model.HistoryRow
	for _, ticker := range tickers {
		dates := unionDates(priceByTicker[ticker], txByTicker[ticker])
		lastPrice := 0.0
		var other map[string]string
		for _, d := range dates {
			row := model.HistoryRow{Ticker: model.Real(ticker), Date: d}
			if p, ok := priceByTicker[ticker][d]; ok {
				lastPrice = p
			}
			if tx, ok := txByTicker[ticker][d]; ok {
				row.Units = tx.Units
				row.Cost = tx.Cost
				row.Price = tx.Price
				if len(tx.Other) > 0 {
					other = tx.Other
				}
				// acquisition tickers have no market price until the feed starts
				if tx.Price != 0 && lastPrice == 0 {
					lastPrice = tx.Price
				}
			}
			row.LastPrice = lastPrice
			row.Dividend = dividends[ticker][d]
			rows = append(rows, row)
		}
		// backfill the extension dimensions across the ticker's rows
		if other != nil {
			for i := len(rows) - len(dates); i < len(rows); i++ {
				if rows[i].Other == nil {
					rows[i].Other = other
				}
			}
		}
	}

	sortHistoryDesc(rows)
	return rows
}

// groupByTickerDate re-groups transactions per (date, ticker, other fields),
// summing units and cost and re-deriving the price. Needed after the cash
// legs are appended, which creates multiple same-day cash rows.
func groupByTickerDate(txs []model.Transaction, otherFields []string) []model.Transaction {
	type key struct {
		date   time.Time
		ticker string
		other  string
	}
	sums := make(map[key]*model.Transaction)
	var order []key
	for _, tx := range txs {
		k := key{tx.Date, tx.Ticker, tx.OtherKey(otherFields)}
		if agg, ok := sums[k]; ok {
			agg.Units += tx.Units
			agg.Cost += tx.Cost
			continue
		}
		cp := tx
		sums[k] = &cp
		order = append(order, k)
	}
	out := make([]model.Transaction, 0, len(order))
	for _, k := range order {
		tx := *sums[k]
		if tx.Units == 0 {
			tx.Price = 0
		} else {
			tx.Price = -tx.Cost / tx.Units
		}
		out = append(out, tx)
	}
	return out
}

func unionDates(prices map[time.Time]float64, txs map[time.Time]model.Transaction) []time.Time {
	seen := make(map[time.Time]bool, len(prices)+len(txs))
	var dates []time.Time
	for d := range prices {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	for d := range txs {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func sortHistoryDesc(rows []model.HistoryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].Ticker.String(), rows[j].Ticker.String()
		if ti != tj {
			return ti < tj
		}
		return rows[i].Date.After(rows[j].Date)
	})
}
