package portfolio

import (
	"log"
	"time"

	"github.com/jkoestner/folioflex/internal/model"
)

// buildBenchmark replays the ledger's cash flows into a benchmark ticker:
// every deposit, withdrawal and cash dividend is restated as a purchase or
// sale of the benchmark at its closing price on the same date. The result
// answers "what if the same money had gone into the benchmark instead".
//
// Only actual ledger Cash rows are replayed, so the benchmark tracks the
// contribution schedule: trades between holdings do not move it. The
// benchmark pays no dividends of its own, though cash dividends received by
// the portfolio are reinvested into it. Returns nil when the ledger has no
// cash rows to replay.
func buildBenchmark(symbol string, ledger []model.Transaction, history []model.PricePoint) []model.HistoryRow {
	var cash []model.Transaction
	for _, tx := range ledger {
		if tx.Ticker != model.CashTicker {
			continue
		}
		tx.Ticker = symbol
		tx.Type = model.TypeCash
		tx.Cost = -tx.Cost
		cash = append(cash, tx)
	}
	if len(cash) == 0 {
		log.Printf("WARN: no cash transactions to benchmark against %s", symbol)
		return nil
	}

	prices := make(map[time.Time]float64)
	for _, p := range history {
		if p.Ticker == symbol {
			prices[p.Date] = p.LastPrice
		}
	}

	missing := 0
	bench := make([]model.Transaction, 0, len(cash))
	for _, tx := range groupByTickerDate(cash, nil) {
		price, ok := prices[tx.Date]
		if !ok || price == 0 {
			missing++
			continue
		}
		tx.Price = price
		tx.Units = -tx.Cost / price
		bench = append(bench, tx)
	}
	if missing > 0 {
		log.Printf("WARN: %d cash flows had no %s price and were skipped in the benchmark", missing, symbol)
	}

	rows := mergeHistory(bench, history, nil, nil)
	rows = calcMetrics(rows)
	for i := range rows {
		rows[i].Ticker = model.Benchmark(symbol)
	}
	return rows
}
