// Package cache provides the Redis-backed ticker cache used to bridge short
// exchange outages with the last fetched quotes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// RedisTickerCache stores one JSON ticker per source and native symbol with
// a TTL, so a cached quote cannot outlive its usefulness.
type RedisTickerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTickerCache connects to Redis and verifies the connection.
func NewRedisTickerCache(addr, password string, db int, ttl time.Duration) (*RedisTickerCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisTickerCache{client: client, ttl: ttl}, nil
}

func tickerKey(sourceCode, symbol string) string {
	return fmt.Sprintf("ticker:%s:%s", sourceCode, symbol)
}

// SetTicker implements clients.TickerCache.
func (c *RedisTickerCache) SetTicker(ctx context.Context, sourceCode string, ticker domain.Ticker) error {
	data, err := json.Marshal(ticker)
	if err != nil {
		return fmt.Errorf("failed to marshal ticker: %w", err)
	}
	if err := c.client.Set(ctx, tickerKey(sourceCode, ticker.Symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache ticker: %w", err)
	}
	return nil
}

// GetTicker implements clients.TickerCache.
func (c *RedisTickerCache) GetTicker(ctx context.Context, sourceCode, symbol string) (*domain.Ticker, error) {
	data, err := c.client.Get(ctx, tickerKey(sourceCode, symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: no cached ticker for %s/%s", apperrors.ErrNotFound, sourceCode, symbol)
		}
		return nil, fmt.Errorf("failed to read cached ticker: %w", err)
	}
	var ticker domain.Ticker
	if err := json.Unmarshal(data, &ticker); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached ticker: %w", err)
	}
	return &ticker, nil
}

// Ping reports Redis connectivity for health checks.
func (c *RedisTickerCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisTickerCache) Close() error {
	return c.client.Close()
}
