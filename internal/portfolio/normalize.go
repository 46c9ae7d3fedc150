package portfolio

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// NormalizeOptions controls transaction normalization.
type NormalizeOptions struct {
	// FilterTypes lists transaction types to exclude.
	FilterTypes []model.TransactionType
	// FilterBrokers, when non-empty, keeps only transactions from these brokers.
	FilterBrokers []string
	// OtherFields names extra dimensions to carry through grouping.
	OtherFields []string
	// FixDates shifts transactions dated outside market days to the previous
	// trading day instead of only reporting them.
	FixDates bool
}

// NormalizeResult is the outcome of normalizing a raw transaction set.
type NormalizeResult struct {
	Transactions []model.Transaction
	// InvalidDates lists transaction dates that are not valid trading days
	// after any fixing was applied.
	InvalidDates []time.Time
	// FixedDates counts how many transactions had their date shifted.
	FixedDates int
}

// Normalize filters, groups and prices raw transaction rows.
//
// Rows whose type is in FilterTypes are dropped; when FilterBrokers is set only
// matching brokers are kept. Multiple transactions sharing (date, ticker, type,
// broker, other fields) are summed into one row. The per-transaction price is
// derived as -cost/units, fixed at 1.0 for the Cash ticker and DIVIDEND type.
// Transaction dates are validated against the market calendar; with FixDates
// invalid dates move to the prior trading day and a single warning carrying the
// count is logged.
func Normalize(rows []model.Transaction, opts NormalizeOptions) (NormalizeResult, error) {
	if len(rows) == 0 {
		return NormalizeResult{}, apperrors.ErrNoTransactions
	}

	excluded := make(map[model.TransactionType]bool, len(opts.FilterTypes))
	for _, t := range opts.FilterTypes {
		excluded[t] = true
	}
	included := make(map[string]bool, len(opts.FilterBrokers))
	for _, b := range opts.FilterBrokers {
		included[b] = true
	}

	var filtered []model.Transaction
	for _, tx := range rows {
		if excluded[tx.Type] {
			continue
		}
		if len(included) > 0 && !included[tx.Broker] {
			continue
		}
		tx.Date = calendar.Midnight(tx.Date)
		filtered = append(filtered, tx)
	}
	if len(filtered) == 0 {
		return NormalizeResult{}, fmt.Errorf("%w (check filter brokers %v)",
			apperrors.ErrNoTransactions, opts.FilterBrokers)
	}

	grouped := groupTransactions(filtered, opts.OtherFields)
	for i := range grouped {
		grouped[i].Price = derivePrice(grouped[i])
	}

	result := NormalizeResult{Transactions: grouped}
	result.Transactions, result.InvalidDates, result.FixedDates =
		checkDates(result.Transactions, opts.FixDates)

	sortTransactionsDesc(result.Transactions)

	log.Printf("normalized %d raw transactions into %d rows", len(rows), len(result.Transactions))
	return result, nil
}

// groupTransactions merges same-day duplicate entries, summing units and cost.
func groupTransactions(txs []model.Transaction, otherFields []string) []model.Transaction {
	type key struct {
		date   time.Time
		ticker string
		typ    model.TransactionType
		broker string
		other  string
	}
	sums := make(map[key]*model.Transaction)
	var order []key
	for _, tx := range txs {
		k := key{tx.Date, tx.Ticker, tx.Type, tx.Broker, tx.OtherKey(otherFields)}
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
		out = append(out, *sums[k])
	}
	return out
}

// derivePrice computes the per-transaction price with a divide-by-zero guard.
func derivePrice(tx model.Transaction) float64 {
	if tx.Ticker == model.CashTicker || tx.Type == model.TypeDividend {
		return 1
	}
	if tx.Units == 0 {
		return 0
	}
	return -tx.Cost / tx.Units
}

// checkDates validates that every transaction date is a market trading day.
// With fix set, invalid dates are shifted to the previous trading day.
func checkDates(txs []model.Transaction, fix bool) ([]model.Transaction, []time.Time, int) {
	var fixed int
	var example [2]time.Time
	for i := range txs {
		if calendar.IsTradingDay(txs[i].Date) {
			continue
		}
		if fix {
			prev := calendar.PreviousTradingDay(txs[i].Date)
			if fixed == 0 {
				example = [2]time.Time{txs[i].Date, prev}
			}
			txs[i].Date = prev
			fixed++
		}
	}
	if fixed > 0 {
		log.Printf("WARN: %d transaction(s) dates were fixed to previous valid date such as %s updated to %s",
			fixed, example[0].Format("2006-01-02"), example[1].Format("2006-01-02"))
	}

	var invalid []time.Time
	seen := make(map[time.Time]bool)
	for _, tx := range txs {
		if !calendar.IsTradingDay(tx.Date) && !seen[tx.Date] {
			seen[tx.Date] = true
			invalid = append(invalid, tx.Date)
		}
	}
	if len(invalid) > 0 {
		log.Printf("WARN: %d transaction date(s) fall outside market trading days such as %s",
			len(invalid), invalid[0].Format("2006-01-02"))
	}
	return txs, invalid, fixed
}

func sortTransactionsDesc(txs []model.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].Ticker < txs[j].Ticker
	})
}

// uniqueTickers returns the distinct tickers in transaction order.
func uniqueTickers(txs []model.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range txs {
		if !seen[tx.Ticker] {
			seen[tx.Ticker] = true
			out = append(out, tx.Ticker)
		}
	}
	return out
}
