// Package apperrors defines the sentinel errors shared across the engine and
// its API surface. Configuration errors abort portfolio construction; data
// quality and numeric-degenerate conditions are logged and tallied instead of
// raised, so one bad ticker never blocks the rest of the portfolio.
package apperrors

import "errors"

// Configuration errors are fatal and raised immediately: downstream metrics
// would be meaningless without the inputs they guard.
var (
	// ErrMissingColumns indicates the transaction source lacks required columns.
	ErrMissingColumns = errors.New("missing required transaction columns")

	// ErrUnsupportedFormat indicates an unsupported transaction or price file format.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrSourceUnreadable indicates the transaction source could not be read.
	ErrSourceUnreadable = errors.New("transaction source unreadable")

	// ErrNoTransactions indicates filtering left no transactions to analyze.
	ErrNoTransactions = errors.New("no transactions after filtering")

	// ErrMissingConfig indicates a required configuration key is absent.
	ErrMissingConfig = errors.New("missing required configuration key")
)

// Caller-misuse errors on the query surface.
var (
	// ErrDateOutOfRange indicates performance was requested for a date beyond
	// the data's max date.
	ErrDateOutOfRange = errors.New("date is greater than max date")

	// ErrPortfolioNotFound indicates a portfolio with the given name does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrUnknownMetric indicates a view was requested for a metric the history
	// table does not carry.
	ErrUnknownMetric = errors.New("unknown view metric")

	// ErrInvalidLookback indicates a lookback could not be parsed as days,
	// a date, or "ytd".
	ErrInvalidLookback = errors.New("invalid lookback")
)

// Storage errors.
var (
	// ErrSnapshotNotFound indicates no materialized performance snapshot exists
	// for the requested portfolio and date.
	ErrSnapshotNotFound = errors.New("performance snapshot not found")
)
