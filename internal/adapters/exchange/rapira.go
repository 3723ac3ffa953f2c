package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Rapira publishes obvious placeholder prices (e.g. 99999) on empty plates;
// anything at or above this is discarded.
var rapiraPlaceholderFloor = decimal.NewFromInt(90000)

// RapiraClient talks to the Rapira public API. Rapira exposes an order-book
// excerpt ("exchange plate") per symbol and a bulk rates endpoint.
type RapiraClient struct {
	*httpBase
}

// NewRapiraClient creates a client against the given base URL,
// e.g. "https://api.rapira.net".
func NewRapiraClient(cfg ClientConfig, logger *slog.Logger) *RapiraClient {
	return &RapiraClient{httpBase: newHTTPBase(cfg, logger.With(slog.String("source", "rapira")))}
}

// Code implements clients.ExchangeClient.
func (c *RapiraClient) Code() string { return "rapira" }

type rapiraPlate struct {
	Ask rapiraPlateSide `json:"ask"`
	Bid rapiraPlateSide `json:"bid"`
}

type rapiraPlateSide struct {
	Items []struct {
		Price  decimal.Decimal `json:"price"`
		Amount decimal.Decimal `json:"amount"`
	} `json:"items"`
	LowestPrice  decimal.NullDecimal `json:"lowestPrice"`
	HighestPrice decimal.NullDecimal `json:"highestPrice"`
}

// GetOrderBook fetches the exchange plate for one symbol, e.g. "USDT/RUB".
// Items arrive best price first on both sides.
func (c *RapiraClient) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	var plate rapiraPlate
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/market/exchange-plate-mini", params, &plate); err != nil {
		return nil, err
	}

	book := &domain.OrderBook{
		Symbol:    symbol,
		Asks:      plateLevels(plate.Ask),
		Bids:      plateLevels(plate.Bid),
		Timestamp: time.Now(),
	}
	if len(book.Asks) == 0 && len(book.Bids) == 0 {
		return nil, fmt.Errorf("%w: empty plate for %s", apperrors.ErrSourceUnavailable, symbol)
	}
	return book, nil
}

// GetTicker derives a ticker from the plate: best bid and ask from the top
// items, last price approximated by the mid.
func (c *RapiraClient) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	book, err := c.GetOrderBook(ctx, symbol)
	if err != nil {
		return nil, err
	}

	ticker := &domain.Ticker{Symbol: symbol, Timestamp: book.Timestamp}
	if len(book.Bids) > 0 {
		ticker.Bid = decimal.NewNullDecimal(book.Bids[0].Price)
	}
	if len(book.Asks) > 0 {
		ticker.Ask = decimal.NewNullDecimal(book.Asks[0].Price)
	}
	switch {
	case ticker.Bid.Valid && ticker.Ask.Valid:
		ticker.LastPrice = ticker.Bid.Decimal.Add(ticker.Ask.Decimal).Div(decimal.NewFromInt(2))
	case ticker.Ask.Valid:
		ticker.LastPrice = ticker.Ask.Decimal
	case ticker.Bid.Valid:
		ticker.LastPrice = ticker.Bid.Decimal
	}
	return ticker, nil
}

type rapiraRate struct {
	Symbol   string              `json:"symbol"`
	Close    decimal.Decimal     `json:"close"`
	BidPrice decimal.NullDecimal `json:"bidPrice"`
	AskPrice decimal.NullDecimal `json:"askPrice"`
	Volume   decimal.NullDecimal `json:"volume"`
	High     decimal.NullDecimal `json:"high"`
	Low      decimal.NullDecimal `json:"low"`
	Change   decimal.NullDecimal `json:"chg"`
}

// GetAllTickers fetches the bulk rates endpoint.
func (c *RapiraClient) GetAllTickers(ctx context.Context) (map[string]domain.Ticker, error) {
	var payload struct {
		Data []rapiraRate `json:"data"`
	}
	if err := c.getJSON(ctx, "/open/market/rates", nil, &payload); err != nil {
		return nil, err
	}

	now := time.Now()
	tickers := make(map[string]domain.Ticker, len(payload.Data))
	for _, r := range payload.Data {
		if r.Symbol == "" || r.Close.IsZero() {
			continue
		}
		tickers[r.Symbol] = domain.Ticker{
			Symbol:    r.Symbol,
			LastPrice: r.Close,
			Bid:       r.BidPrice,
			Ask:       r.AskPrice,
			Volume24h: r.Volume,
			High24h:   r.High,
			Low24h:    r.Low,
			Change24h: r.Change,
			Timestamp: now,
		}
	}
	return tickers, nil
}

func plateLevels(side rapiraPlateSide) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(side.Items))
	for _, item := range side.Items {
		if !item.Price.IsPositive() || item.Price.GreaterThanOrEqual(rapiraPlaceholderFloor) {
			continue
		}
		if !item.Amount.IsPositive() {
			continue
		}
		out = append(out, domain.BookLevel{Price: item.Price, Qty: item.Amount})
	}
	return out
}
