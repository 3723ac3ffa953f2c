package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a normalized quote from one exchange for one native symbol.
type Ticker struct {
	Symbol    string              `json:"symbol"` // source-native spelling
	LastPrice decimal.Decimal     `json:"lastPrice"`
	Bid       decimal.NullDecimal `json:"bid"`
	Ask       decimal.NullDecimal `json:"ask"`
	Volume24h decimal.NullDecimal `json:"volume24h"`
	High24h   decimal.NullDecimal `json:"high24h"`
	Low24h    decimal.NullDecimal `json:"low24h"`
	Change24h decimal.NullDecimal `json:"change24h"`
	Timestamp time.Time           `json:"timestamp"`
}

// Side is one side of an order book.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

// OrderBook holds depth for one symbol. Asks are sorted ascending and bids
// descending, best price first; consumers rely on that orientation.
type OrderBook struct {
	Symbol    string              `json:"symbol"`
	Bids      []BookLevel         `json:"bids"`
	Asks      []BookLevel         `json:"asks"`
	LastPrice decimal.NullDecimal `json:"lastPrice"`
	Timestamp time.Time           `json:"timestamp"`
}

// Levels returns the requested side of the book, best price first.
func (b OrderBook) Levels(side Side) []BookLevel {
	if side == SideBid {
		return b.Bids
	}
	return b.Asks
}

// SourceHealth is the rolling health surface of one exchange client.
type SourceHealth struct {
	LatencyMs   float64   `json:"latencyMs"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
	IsAvailable bool      `json:"isAvailable"`
	LastUpdate  time.Time `json:"lastUpdate"`
}
