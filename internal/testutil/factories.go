package testutil

import (
	"time"

	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// TransactionBuilder provides a fluent interface for creating test
// transactions.
//
// Example usage:
//
//	tx := testutil.NewTransaction("AAPL").
//	    On("2023-01-03").
//	    Buy(10, 100).
//	    Build()
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder with sensible defaults: a BUY
// of one unit at zero cost on the first trading day of 2023.
func NewTransaction(ticker string) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		Date:   Day("2023-01-03"),
		Ticker: ticker,
		Type:   model.TypeBuy,
		Units:  1,
	}}
}

// On sets the transaction date from a "2006-01-02" string.
func (b *TransactionBuilder) On(date string) *TransactionBuilder {
	b.tx.Date = Day(date)
	return b
}

// Buy marks the transaction a BUY of units shares at the given per-share
// price, with the matching negative cost.
func (b *TransactionBuilder) Buy(units, price float64) *TransactionBuilder {
	b.tx.Type = model.TypeBuy
	b.tx.Units = units
	b.tx.Cost = -units * price
	return b
}

// Sell marks the transaction a SELL of units shares at the given per-share
// price, with the matching positive proceeds.
func (b *TransactionBuilder) Sell(units, price float64) *TransactionBuilder {
	b.tx.Type = model.TypeSell
	b.tx.Units = -units
	b.tx.Cost = units * price
	return b
}

// Dividend marks the transaction a cash dividend of the given amount. Per
// the ledger convention dividend rows carry the cash amount in both units
// and cost.
func (b *TransactionBuilder) Dividend(amount float64) *TransactionBuilder {
	b.tx.Type = model.TypeDividend
	b.tx.Units = amount
	b.tx.Cost = amount
	return b
}

// Cash marks the transaction a cash deposit (positive) or withdrawal
// (negative). Cash rows carry the amount in both units and cost; the engine
// flips the cost sign when it builds the cash position.
func (b *TransactionBuilder) Cash(amount float64) *TransactionBuilder {
	b.tx.Ticker = model.CashTicker
	b.tx.Type = model.TypeCash
	b.tx.Units = amount
	b.tx.Cost = amount
	return b
}

// WithType overrides the transaction type.
func (b *TransactionBuilder) WithType(txType model.TransactionType) *TransactionBuilder {
	b.tx.Type = txType
	return b
}

// WithBroker sets the broker.
func (b *TransactionBuilder) WithBroker(broker string) *TransactionBuilder {
	b.tx.Broker = broker
	return b
}

// WithOther sets an extension field.
func (b *TransactionBuilder) WithOther(key, value string) *TransactionBuilder {
	if b.tx.Other == nil {
		b.tx.Other = make(map[string]string)
	}
	b.tx.Other[key] = value
	return b
}

// Build returns the transaction.
func (b *TransactionBuilder) Build() model.Transaction {
	return b.tx
}

// Day parses a "2006-01-02" date string, panicking on bad input. Test data
// only.
func Day(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// PriceSeries generates a flat daily price series for a ticker over every
// trading day between start and end inclusive.
func PriceSeries(ticker string, start, end string, price float64) []model.PricePoint {
	var points []model.PricePoint
	for _, d := range calendar.TradingDays(Day(start), Day(end)) {
		points = append(points, model.PricePoint{
			Ticker:    ticker,
			Date:      d,
			LastPrice: price,
		})
	}
	return points
}

// RampSeries generates a daily price series that increases by step on each
// trading day between start and end inclusive.
func RampSeries(ticker string, start, end string, initial, step float64) []model.PricePoint {
	var points []model.PricePoint
	price := initial
	for _, d := range calendar.TradingDays(Day(start), Day(end)) {
		points = append(points, model.PricePoint{
			Ticker:    ticker,
			Date:      d,
			LastPrice: price,
		})
		price += step
	}
	return points
}
