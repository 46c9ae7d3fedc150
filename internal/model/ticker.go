package model

import "strings"

// TickerKind discriminates real instruments from the synthetic series the
// engine produces. Using a tagged type instead of string prefixes keeps
// aggregation and filtering logic from matching on "benchmark-" substrings.
type TickerKind int

const (
	// KindReal is a traded instrument (or the Cash sentinel).
	KindReal TickerKind = iota
	// KindPortfolio is the synthetic aggregate of all real tickers.
	KindPortfolio
	// KindBenchmark is a hypothetical replication of the cash schedule
	// into a reference instrument.
	KindBenchmark
)

// PortfolioTicker is the display name of the aggregate pseudo-ticker.
const PortfolioTicker = "portfolio"

// Ticker is a discriminated instrument identifier.
type Ticker struct {
	Kind   TickerKind `json:"kind"`
	Symbol string     `json:"symbol"` // underlying symbol for real/benchmark kinds
}

// Real returns a ticker for a traded instrument.
func Real(symbol string) Ticker { return Ticker{Kind: KindReal, Symbol: symbol} }

// Portfolio returns the aggregate pseudo-ticker.
func Portfolio() Ticker { return Ticker{Kind: KindPortfolio} }

// Benchmark returns the benchmark pseudo-ticker for a symbol.
func Benchmark(symbol string) Ticker { return Ticker{Kind: KindBenchmark, Symbol: symbol} }

// String renders the ticker the way downstream consumers key their tables:
// the symbol itself, "portfolio", or "benchmark-<symbol>".
func (t Ticker) String() string {
	switch t.Kind {
	case KindPortfolio:
		return PortfolioTicker
	case KindBenchmark:
		return "benchmark-" + t.Symbol
	default:
		return t.Symbol
	}
}

// IsCash reports whether the ticker is the cash sentinel.
func (t Ticker) IsCash() bool { return t.Kind == KindReal && t.Symbol == CashTicker }

// ParseTicker is the inverse of String, used when reading persisted rows.
func ParseTicker(s string) Ticker {
	switch {
	case s == PortfolioTicker:
		return Portfolio()
	case strings.HasPrefix(s, "benchmark-"):
		return Benchmark(strings.TrimPrefix(s, "benchmark-"))
	default:
		return Real(s)
	}
}
