package services

import (
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ApplyMarkup applies a markup rule to a raw price:
// priced = raw * (1 + percent/100) + fixed, rounded per the rule.
// A nil rule means no markup; the raw price is returned unchanged.
// Percent and fixed may both be negative, and the result is not clamped:
// a pathological rule can legally produce a non-positive price.
func ApplyMarkup(rawPrice decimal.Decimal, rule *domain.MarkupRule) decimal.Decimal {
	if rule == nil {
		return rawPrice
	}
	priced := rawPrice.Mul(decimal.NewFromInt(1).Add(rule.Percent.Div(oneHundred)))
	priced = priced.Add(rule.Fixed)
	return RoundPrice(priced, rule.RoundingMode, rule.RoundTo)
}

// RoundPrice rounds a price to the given number of decimal places using the
// requested mode. Unknown modes fall back to half-up.
func RoundPrice(price decimal.Decimal, mode domain.RoundingMode, places int32) decimal.Decimal {
	switch mode {
	case domain.RoundDown:
		return price.RoundDown(places)
	case domain.RoundUp:
		return price.RoundUp(places)
	case domain.RoundBanker:
		return price.RoundBank(places)
	case domain.RoundHalfUp:
		return price.Round(places)
	}
	return price.Round(places)
}

// roundPlacesForQuote returns the display precision for a quote currency:
// fiat quotes round to cents, crypto quotes keep more digits.
func roundPlacesForQuote(quoteCurrency string) int32 {
	switch quoteCurrency {
	case "RUB", "USD", "EUR":
		return 2
	case "USDT", "USDC":
		return 4
	}
	return 4
}
