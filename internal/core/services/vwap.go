package services

import (
	"fmt"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// VWAP computes the volume-weighted average price for filling targetQty
// against one side of an order book. Levels must already be oriented best
// price first (asks ascending, bids descending); the calculator trusts the
// caller's book orientation and does not re-sort.
//
// The walk accumulates quantity until targetQty is filled or the levels run
// out; the last consumed level may be filled partially. When no depth is
// usable the price falls back to top-of-book, then to the last trade; with
// nothing left it fails with apperrors.ErrNoPriceAvailable.
func VWAP(book domain.OrderBook, side domain.Side, targetQty decimal.Decimal) (decimal.Decimal, error) {
	levels := book.Levels(side)

	if targetQty.IsPositive() {
		var filled, notional decimal.Decimal
		remaining := targetQty
		for _, lvl := range levels {
			if !lvl.Qty.IsPositive() {
				continue
			}
			take := lvl.Qty
			if take.GreaterThan(remaining) {
				take = remaining
			}
			notional = notional.Add(lvl.Price.Mul(take))
			filled = filled.Add(take)
			remaining = remaining.Sub(take)
			if !remaining.IsPositive() {
				break
			}
		}
		if filled.IsPositive() {
			return notional.Div(filled), nil
		}
	}

	// No usable depth: top-of-book, then last trade.
	if len(levels) > 0 {
		return levels[0].Price, nil
	}
	if book.LastPrice.Valid {
		return book.LastPrice.Decimal, nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %s side of %s is empty", apperrors.ErrNoPriceAvailable, side, book.Symbol)
}
