// Package exchange contains the HTTP clients for the upstream quote sources.
// Each client normalizes its exchange's wire format into domain tickers and
// order books and keeps a rolling health surface for the scheduler.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
)

// ClientConfig carries the per-source HTTP settings.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// httpBase is the piece shared by every exchange client: a configured
// http.Client, retry with exponential backoff on transient failures, and
// health accounting.
type httpBase struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger

	mu     sync.Mutex
	health domain.SourceHealth
}

func newHTTPBase(cfg ClientConfig, logger *slog.Logger) *httpBase {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &httpBase{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: retries,
		logger:     logger,
		health:     domain.SourceHealth{IsAvailable: true, LastUpdate: time.Now()},
	}
}

// getJSON performs a GET against path, retrying transport errors and 5xx
// responses with 1s/2s/4s backoff. 4xx responses fail immediately.
func (b *httpBase) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			b.logger.Warn("retrying exchange request",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		retryable, err := b.doOnce(ctx, path, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return fmt.Errorf("%w: %s%s: %v", apperrors.ErrSourceUnavailable, b.baseURL, path, lastErr)
}

func (b *httpBase) doOnce(ctx context.Context, path string, params url.Values, out any) (retryable bool, err error) {
	reqURL := b.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		b.recordFailure(latency, err)
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		b.recordFailure(latency, err)
		return resp.StatusCode >= 500, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		b.recordFailure(latency, err)
		return false, fmt.Errorf("decode response: %w", err)
	}
	b.recordSuccess(latency)
	return false, nil
}

func (b *httpBase) recordSuccess(latency time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health.LatencyMs = float64(latency.Milliseconds())
	b.health.IsAvailable = true
	b.health.LastUpdate = time.Now()
	b.health.ErrorCount = 0
	b.health.LastError = ""
}

func (b *httpBase) recordFailure(latency time.Duration, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health.LatencyMs = float64(latency.Milliseconds())
	b.health.IsAvailable = false
	b.health.LastUpdate = time.Now()
	b.health.ErrorCount++
	b.health.LastError = err.Error()
}

// Health returns a copy of the client's health surface.
func (b *httpBase) Health() domain.SourceHealth {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health
}

// extractDecimal returns the first key present in data that parses as a
// decimal. Exchanges disagree on field names, so callers pass the spellings
// they have seen in the wild.
func extractDecimal(data map[string]any, keys ...string) decimal.NullDecimal {
	for _, key := range keys {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		d, err := toDecimal(v)
		if err != nil {
			continue
		}
		return decimal.NewNullDecimal(d)
	}
	return decimal.NullDecimal{}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case string:
		return decimal.NewFromString(t)
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromString(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// extractTimestamp reads an epoch (seconds or milliseconds) or RFC 3339
// timestamp; zero time when absent.
func extractTimestamp(data map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			n := int64(t)
			if n > 1e10 {
				return time.UnixMilli(n)
			}
			return time.Unix(n, 0)
		case json.Number:
			if n, err := t.Int64(); err == nil {
				if n > 1e10 {
					return time.UnixMilli(n)
				}
				return time.Unix(n, 0)
			}
		case string:
			if ts, err := time.Parse(time.RFC3339, t); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}
