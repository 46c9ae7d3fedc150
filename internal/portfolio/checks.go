package portfolio

import (
	"log"
	"slices"

	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// CheckTransactions verifies sign conventions and structural expectations on a
// normalized transaction set and returns the number of failed checks. Failures
// are logged as warnings, never raised: a dirty ledger still gets analyzed.
//
// Checks performed:
//   - SELL / SELL SHORT: units must be <= 0 and cost >= 0
//   - BUY / BUY COVER: units must be >= 0 and cost <= 0
//   - DIVIDEND: cost must equal units and be >= 0
//   - broker column, when used, must hold a single broker
//   - transaction types must be recognized
//   - every transaction date must be a valid trading day
func CheckTransactions(txs []model.Transaction) int {
	failed := 0
	warn := func(format string, args ...any) {
		log.Printf("WARN: "+format, args...)
		failed++
	}

	signChecks := []struct {
		typ     model.TransactionType
		bad     func(model.Transaction) bool
		message string
	}{
		{model.TypeSell, func(t model.Transaction) bool { return t.Units > 0 }, "positive units for SELL"},
		{model.TypeSell, func(t model.Transaction) bool { return t.Cost < 0 }, "negative cost for SELL"},
		{model.TypeSellShort, func(t model.Transaction) bool { return t.Units > 0 }, "positive units for SELL SHORT"},
		{model.TypeSellShort, func(t model.Transaction) bool { return t.Cost < 0 }, "negative cost for SELL SHORT"},
		{model.TypeBuy, func(t model.Transaction) bool { return t.Units < 0 }, "negative units for BUY"},
		{model.TypeBuy, func(t model.Transaction) bool { return t.Cost > 0 }, "positive cost for BUY"},
		{model.TypeBuyCover, func(t model.Transaction) bool { return t.Units < 0 }, "negative units for BUY COVER"},
		{model.TypeBuyCover, func(t model.Transaction) bool { return t.Cost > 0 }, "positive cost for BUY COVER"},
		{model.TypeDividend, func(t model.Transaction) bool { return t.Cost != t.Units }, "cost not equal to units for DIVIDEND"},
		{model.TypeDividend, func(t model.Transaction) bool { return t.Cost < 0 }, "negative cost for DIVIDEND"},
	}

	for _, check := range signChecks {
		for _, tx := range txs {
			if tx.Type == check.typ && check.bad(tx) {
				warn("transaction with %s such as %s with %v units and %v cost",
					check.message, tx.Ticker, tx.Units, tx.Cost)
				break
			}
		}
	}

	// A mixed broker column makes same-day grouping incorrect.
	brokers := make(map[string]bool)
	for _, tx := range txs {
		brokers[tx.Broker] = true
	}
	const brokersAllowed = 2 // the filtered broker plus blank
	if len(brokers) > brokersAllowed {
		warn("broker column holds %d distinct brokers; grouping of transactions will be incorrect", len(brokers))
	}

	seenTypes := make(map[model.TransactionType]bool)
	for _, tx := range txs {
		if seenTypes[tx.Type] {
			continue
		}
		seenTypes[tx.Type] = true
		if !slices.Contains(model.AllowedTypes, tx.Type) {
			warn("transaction type %q is not in %v", tx.Type, model.AllowedTypes)
		}
	}

	for _, tx := range txs {
		if !calendar.IsTradingDay(tx.Date) {
			warn("invalid dates found in transactions such as %s", tx.Date.Format("2006-01-02"))
			break
		}
	}

	return failed
}
