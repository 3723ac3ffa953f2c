package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BestRate is a customer-facing quote: the most favorable base price across
// enabled sources with the city markup applied on top.
type BestRate struct {
	Symbol        string                     `json:"symbol"`
	City          string                     `json:"city"`
	CityName      string                     `json:"cityName"`
	Operation     Operation                  `json:"operation"`
	BestSource    string                     `json:"bestSource"`
	BaseRate      decimal.Decimal            `json:"baseRate"`
	FinalRate     decimal.Decimal            `json:"finalRate"`
	MarkupPercent decimal.Decimal            `json:"markupPercent"`
	MarkupFixed   decimal.Decimal            `json:"markupFixed"`
	SourceRates   map[string]decimal.Decimal `json:"sourceRates,omitempty"` // per-source candidates, for comparison
	CalculatedAt  time.Time                  `json:"calculatedAt"`
}

// VWAPQuote is an amount-aware price computed from one source's live
// order-book depth, with the pair's markup rule applied on top.
type VWAPQuote struct {
	SourceCode    string          `json:"sourceCode"`
	Symbol        string          `json:"symbol"`
	Operation     Operation       `json:"operation"`
	Amount        decimal.Decimal `json:"amount"`
	RawVWAP       decimal.Decimal `json:"rawVWAP"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
	AppliedRuleID *string         `json:"appliedRuleID,omitempty"`
	BookTimestamp time.Time       `json:"bookTimestamp"`
	CalculatedAt  time.Time       `json:"calculatedAt"`
}

// ClientRateSide is one direction of a client-facing quote table entry.
type ClientRateSide struct {
	Rate     decimal.Decimal `json:"rate"`
	BaseRate decimal.Decimal `json:"baseRate"`
	Source   string          `json:"source"`
	Markup   decimal.Decimal `json:"markup"`
}

// ClientRates holds both directions for one pair in one city.
type ClientRates struct {
	Symbol string          `json:"symbol"`
	Buy    *ClientRateSide `json:"buy,omitempty"`
	Sell   *ClientRateSide `json:"sell,omitempty"`
}
