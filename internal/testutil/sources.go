package testutil

import (
	"context"

	"github.com/jkoestner/folioflex/internal/model"
)

// StaticTransactions is an in-memory transaction source for tests.
type StaticTransactions []model.Transaction

// Transactions returns the configured transactions.
func (s StaticTransactions) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return s, nil
}

// StaticPrices is an in-memory price source for tests. The requested tickers
// and minYear are ignored; everything configured is returned.
type StaticPrices []model.PricePoint

// PriceHistory returns the configured price points.
func (s StaticPrices) PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error) {
	return s, nil
}

// FailingSource is a transaction and price source that always returns the
// configured error, for exercising failure paths.
type FailingSource struct {
	Err error
}

// Transactions returns the configured error.
func (f FailingSource) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return nil, f.Err
}

// PriceHistory returns the configured error.
func (f FailingSource) PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error) {
	return nil, f.Err
}
