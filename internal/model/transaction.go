package model

import "time"

// TransactionType identifies the kind of ledger entry.
type TransactionType string

// Allowed transaction types. The sign conventions are:
//   - BUY / BUY COVER: units >= 0, cost <= 0 (cash flows out)
//   - SELL / SELL SHORT: units <= 0, cost >= 0 (cash flows in)
//   - DIVIDEND: cost == units, cost >= 0
//   - Cash / BOOK: cash movements and bookkeeping entries
const (
	TypeBuy       TransactionType = "BUY"
	TypeSell      TransactionType = "SELL"
	TypeSellShort TransactionType = "SELL SHORT"
	TypeBuyCover  TransactionType = "BUY COVER"
	TypeDividend  TransactionType = "DIVIDEND"
	TypeBook      TransactionType = "BOOK"
	TypeCash      TransactionType = "Cash"
)

// AllowedTypes lists every transaction type the engine recognizes.
// Unrecognized types are flagged by the transaction checks but still processed.
var AllowedTypes = []TransactionType{
	TypeBook, TypeBuy, TypeCash, TypeSell, TypeBuyCover, TypeSellShort, TypeDividend,
}

// CashTicker is the sentinel symbol for cash positions.
const CashTicker = "Cash"

// Transaction represents one ledger entry from a brokerage transaction source.
// Cost uses the cash-flow sign convention: negative means cash flowed out of
// the account (an investment), positive means cash flowed in.
type Transaction struct {
	Date   time.Time         `json:"date"`
	Ticker string            `json:"ticker"`
	Type   TransactionType   `json:"type"`
	Units  float64           `json:"units"`
	Cost   float64           `json:"cost"`
	Price  float64           `json:"price"` // derived: -cost/units, 1 for Cash and DIVIDEND
	Broker string            `json:"broker,omitempty"`
	Other  map[string]string `json:"other,omitempty"` // extra grouping dimensions
}

// OtherKey returns a stable string key for the extension fields, used when
// grouping transactions by (date, ticker, type, other fields).
func (t Transaction) OtherKey(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	key := ""
	for _, f := range fields {
		key += f + "=" + t.Other[f] + ";"
	}
	return key
}
