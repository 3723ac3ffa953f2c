package domain

import "github.com/shopspring/decimal"

// City is a retail location with its own blanket markup, applied on top of
// the best base rate when quoting a customer.
type City struct {
	CityID      string          `json:"cityID"` // Primary Key (UUID)
	Code        string          `json:"code"`   // e.g. "moscow"
	Name        string          `json:"name"`
	MarkupBuy   decimal.Decimal `json:"markupBuy"`  // percent, customer buys
	MarkupSell  decimal.Decimal `json:"markupSell"` // percent, customer sells
	MarkupFixed decimal.Decimal `json:"markupFixed"`
	Enabled     bool            `json:"enabled"`
	AuditFields
}

// CityPairMarkup overrides a city's blanket markup for one internal symbol.
// Absence of a row falls back to the City's markup.
type CityPairMarkup struct {
	CityPairMarkupID string          `json:"cityPairMarkupID"` // Primary Key (UUID)
	CityID           string          `json:"cityID"`           // FK -> City
	PairSymbol       string          `json:"pairSymbol"`       // internal symbol, e.g. "USDT/RUB"
	MarkupBuy        decimal.Decimal `json:"markupBuy"`
	MarkupSell       decimal.Decimal `json:"markupSell"`
	MarkupFixed      decimal.Decimal `json:"markupFixed"`
	AuditFields
}

// MarkupFor returns the city's percent and fixed markup for an operation.
func (c City) MarkupFor(op Operation) (percent, fixed decimal.Decimal) {
	if op == OperationSell {
		return c.MarkupSell, c.MarkupFixed
	}
	return c.MarkupBuy, c.MarkupFixed
}

// MarkupFor returns the override's percent and fixed markup for an operation.
func (m CityPairMarkup) MarkupFor(op Operation) (percent, fixed decimal.Decimal) {
	if op == OperationSell {
		return m.MarkupSell, m.MarkupFixed
	}
	return m.MarkupBuy, m.MarkupFixed
}
