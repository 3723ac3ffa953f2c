package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRate is the latest observed price from one source for one pair.
// Exactly one row exists per (source, pair); every sync cycle overwrites it.
type RawRate struct {
	SourceID     string              `json:"sourceID"`
	SourcePairID string              `json:"sourcePairID"`
	Price        decimal.Decimal     `json:"price"`
	Bid          decimal.NullDecimal `json:"bid"`
	Ask          decimal.NullDecimal `json:"ask"`
	Volume24h    decimal.NullDecimal `json:"volume24h"`
	Metadata     map[string]string   `json:"metadata,omitempty"` // 24h high/low/change when the source reports them
	ReceivedAt   time.Time           `json:"receivedAt"`
}

// FinalRate is the rule-adjusted, client-facing price for one source+pair.
// Exactly one row exists per (source, pair); the sweep flips Stale, a fresh
// successful sync clears it.
type FinalRate struct {
	SourceID       string              `json:"sourceID"`
	SourceCode     string              `json:"sourceCode"`
	SourcePairID   string              `json:"sourcePairID"`
	InternalSymbol string              `json:"internalSymbol"`
	BaseCurrency   string              `json:"baseCurrency"`
	QuoteCurrency  string              `json:"quoteCurrency"`
	RawPrice       decimal.Decimal     `json:"rawPrice"`
	FinalPrice     decimal.Decimal     `json:"finalPrice"`
	Bid            decimal.NullDecimal `json:"bid"`
	Ask            decimal.NullDecimal `json:"ask"`
	AppliedRuleID  *string             `json:"appliedRuleID,omitempty"`
	MarkupPercent  decimal.Decimal     `json:"markupPercent"`
	MarkupFixed    decimal.Decimal     `json:"markupFixed"`
	CalculatedAt   time.Time           `json:"calculatedAt"`
	Stale          bool                `json:"stale"`
}

// SidePrice returns the price of the requested side with raw last-trade
// fallback. Bid and ask carry no rule markup, so the fallback must not
// either. The boolean is false when neither the side nor the last trade is
// available.
func (f FinalRate) SidePrice(op Operation) (decimal.Decimal, bool) {
	switch op {
	case OperationBuy:
		if f.Ask.Valid {
			return f.Ask.Decimal, true
		}
	case OperationSell:
		if f.Bid.Valid {
			return f.Bid.Decimal, true
		}
	}
	if !f.RawPrice.IsZero() {
		return f.RawPrice, true
	}
	return decimal.Decimal{}, false
}
