package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GrinexClient talks to the Grinex public market-data API.
type GrinexClient struct {
	*httpBase
}

// NewGrinexClient creates a client against the given base URL,
// e.g. "https://api.grinex.io".
func NewGrinexClient(cfg ClientConfig, logger *slog.Logger) *GrinexClient {
	return &GrinexClient{httpBase: newHTTPBase(cfg, logger.With(slog.String("source", "grinex")))}
}

// Code implements clients.ExchangeClient.
func (c *GrinexClient) Code() string { return "grinex" }

// GetTicker fetches the ticker for one native symbol, e.g. "usdtrub".
func (c *GrinexClient) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, "/api/v1/ticker/"+url.PathEscape(symbol), nil, &raw); err != nil {
		return nil, err
	}
	ticker := parseGrinexTicker(raw)
	if ticker == nil {
		return nil, fmt.Errorf("%w: unrecognized ticker payload for %s", apperrors.ErrSourceUnavailable, symbol)
	}
	if ticker.Symbol == "" {
		ticker.Symbol = symbol
	}
	return ticker, nil
}

// GetAllTickers fetches the bulk ticker endpoint. Grinex has served both a
// list of ticker objects and a {symbol: ticker} map, so both shapes parse.
func (c *GrinexClient) GetAllTickers(ctx context.Context) (map[string]domain.Ticker, error) {
	var payload json.RawMessage
	if err := c.getJSON(ctx, "/api/v1/tickers", nil, &payload); err != nil {
		return nil, err
	}

	tickers := make(map[string]domain.Ticker)

	var asList []map[string]any
	if err := json.Unmarshal(payload, &asList); err == nil {
		for _, item := range asList {
			if t := parseGrinexTicker(item); t != nil && t.Symbol != "" {
				tickers[t.Symbol] = *t
			}
		}
		return tickers, nil
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(payload, &asMap); err != nil {
		return nil, fmt.Errorf("%w: unrecognized tickers payload: %v", apperrors.ErrSourceUnavailable, err)
	}
	for symbol, rawItem := range asMap {
		var item map[string]any
		if err := json.Unmarshal(rawItem, &item); err != nil {
			continue
		}
		t := parseGrinexTicker(item)
		if t == nil {
			continue
		}
		if t.Symbol == "" {
			t.Symbol = symbol
		}
		tickers[t.Symbol] = *t
	}
	return tickers, nil
}

// GetOrderBook fetches depth for one symbol.
func (c *GrinexClient) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	var payload struct {
		Bids      [][]json.Number `json:"bids"`
		Asks      [][]json.Number `json:"asks"`
		LastPrice json.Number     `json:"lastPrice"`
		Timestamp int64           `json:"timestamp"`
	}
	params := url.Values{"market": {symbol}}
	if err := c.getJSON(ctx, "/api/v1/depth", params, &payload); err != nil {
		return nil, err
	}

	book := &domain.OrderBook{
		Symbol:    symbol,
		Bids:      parseBookSide(payload.Bids),
		Asks:      parseBookSide(payload.Asks),
		Timestamp: time.Now(),
	}
	if payload.Timestamp > 0 {
		book.Timestamp = time.Unix(payload.Timestamp, 0)
	}
	if last, err := decimal.NewFromString(payload.LastPrice.String()); err == nil {
		book.LastPrice = decimal.NewNullDecimal(last)
	}

	// Normalize orientation: asks ascending, bids descending.
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price.LessThan(book.Asks[j].Price) })
	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price.GreaterThan(book.Bids[j].Price) })
	return book, nil
}

func parseBookSide(levels [][]json.Number) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(levels))
	for _, lvl := range levels {
		if len(lvl) < 2 {
			continue
		}
		price, err := decimal.NewFromString(lvl[0].String())
		if err != nil {
			continue
		}
		qty, err := decimal.NewFromString(lvl[1].String())
		if err != nil || !qty.IsPositive() {
			continue
		}
		out = append(out, domain.BookLevel{Price: price, Qty: qty})
	}
	return out
}

// parseGrinexTicker reads a ticker object under any of the field spellings
// Grinex has used. Returns nil when no price field is present.
func parseGrinexTicker(data map[string]any) *domain.Ticker {
	symbol := ""
	for _, key := range []string{"symbol", "pair", "s"} {
		if v, ok := data[key].(string); ok && v != "" {
			symbol = v
			break
		}
	}

	last := extractDecimal(data, "lastPrice", "last", "price", "c", "close")
	bid := extractDecimal(data, "bid", "bidPrice", "b")
	ask := extractDecimal(data, "ask", "askPrice", "a")
	if !last.Valid && !bid.Valid && !ask.Valid {
		return nil
	}

	ticker := &domain.Ticker{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		Volume24h: extractDecimal(data, "volume", "volume24h", "v", "quoteVolume"),
		High24h:   extractDecimal(data, "high", "high24h", "h"),
		Low24h:    extractDecimal(data, "low", "low24h", "l"),
		Change24h: extractDecimal(data, "change", "priceChange", "priceChangePercent"),
		Timestamp: extractTimestamp(data, "timestamp", "time", "t"),
	}
	if last.Valid {
		ticker.LastPrice = last.Decimal
	}
	if ticker.Timestamp.IsZero() {
		ticker.Timestamp = time.Now()
	}
	return ticker
}
