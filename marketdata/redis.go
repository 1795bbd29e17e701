package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rustyeddy/tradejournal/market"
)

const defaultRedisPrefix = "tradejournal:quote:"

// RedisCache shares quotes between processes. Values are JSON encoded.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // 0 keeps entries forever
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: opts.TTL}, nil
}

func (c *RedisCache) key(ticker, date string) string {
	return c.prefix + cacheKey(ticker, date)
}

func (c *RedisCache) Get(ctx context.Context, ticker, date string) (market.Quote, bool, error) {
	b, err := c.rdb.Get(ctx, c.key(ticker, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return market.Quote{}, false, nil
	}
	if err != nil {
		return market.Quote{}, false, fmt.Errorf("redis get: %w", err)
	}

	var q market.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		return market.Quote{}, false, fmt.Errorf("redis decode: %w", err)
	}
	return q, true, nil
}

func (c *RedisCache) Set(ctx context.Context, ticker, date string, q market.Quote) error {
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(ticker, date), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
