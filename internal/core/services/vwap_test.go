package services_test

import (
	"testing"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(price, qty string) domain.BookLevel {
	return domain.BookLevel{Price: d(price), Qty: d(qty)}
}

func TestVWAP_WalksAskLevels(t *testing.T) {
	book := domain.OrderBook{
		Symbol: "USDT/RUB",
		Asks: []domain.BookLevel{
			level("81.5", "1"),
			level("82", "2"),
		},
	}

	// 1 unit at 81.5 plus 1 unit at 82.
	got, err := services.VWAP(book, domain.SideAsk, d("2"))
	require.NoError(t, err)
	assert.True(t, d("81.75").Equal(got), "got %s", got)
}

func TestVWAP_PartialTopLevel(t *testing.T) {
	book := domain.OrderBook{
		Symbol: "USDT/RUB",
		Asks: []domain.BookLevel{
			level("81.5", "1"),
			level("82", "2"),
		},
	}

	got, err := services.VWAP(book, domain.SideAsk, d("0.5"))
	require.NoError(t, err)
	assert.True(t, d("81.5").Equal(got), "got %s", got)
}

func TestVWAP_TargetExceedsDepth(t *testing.T) {
	book := domain.OrderBook{
		Symbol: "USDT/RUB",
		Asks: []domain.BookLevel{
			level("81.5", "1"),
			level("82", "2"),
		},
	}

	// Everything is consumed: (81.5 + 164) / 3.
	expected := d("245.5").Div(d("3"))
	got, err := services.VWAP(book, domain.SideAsk, d("10"))
	require.NoError(t, err)
	assert.True(t, expected.Equal(got), "got %s", got)
}

func TestVWAP_BidSide(t *testing.T) {
	book := domain.OrderBook{
		Symbol: "USDT/RUB",
		Bids: []domain.BookLevel{
			level("82", "1"),
			level("81.9", "3"),
		},
	}

	got, err := services.VWAP(book, domain.SideBid, d("1"))
	require.NoError(t, err)
	assert.True(t, d("82").Equal(got), "got %s", got)
}

func TestVWAP_ZeroTargetUsesTopOfBook(t *testing.T) {
	book := domain.OrderBook{
		Symbol: "USDT/RUB",
		Asks:   []domain.BookLevel{level("81.5", "1")},
	}

	got, err := services.VWAP(book, domain.SideAsk, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, d("81.5").Equal(got), "got %s", got)
}

func TestVWAP_ZeroQtyLevelsFallBackToTopOfBook(t *testing.T) {
	book := domain.OrderBook{
		Symbol: "USDT/RUB",
		Asks: []domain.BookLevel{
			level("81.5", "0"),
			level("82", "0"),
		},
	}

	got, err := services.VWAP(book, domain.SideAsk, d("1"))
	require.NoError(t, err)
	assert.True(t, d("81.5").Equal(got), "got %s", got)
}

func TestVWAP_EmptySideFallsBackToLastPrice(t *testing.T) {
	book := domain.OrderBook{
		Symbol:    "USDT/RUB",
		LastPrice: decimal.NewNullDecimal(d("81.2")),
	}

	got, err := services.VWAP(book, domain.SideAsk, d("1"))
	require.NoError(t, err)
	assert.True(t, d("81.2").Equal(got), "got %s", got)
}

func TestVWAP_NothingAvailable(t *testing.T) {
	book := domain.OrderBook{Symbol: "USDT/RUB"}

	_, err := services.VWAP(book, domain.SideAsk, d("1"))
	assert.ErrorIs(t, err, apperrors.ErrNoPriceAvailable)
}
