package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "nutriscraper:page:"

// PageCache keeps raw product pages in Redis for TTL.
type PageCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(url string, ttl time.Duration) (*PageCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &PageCache{Client: redis.NewClient(opts), TTL: ttl}, nil
}

// Ping checks the connection so a bad REDIS_URL fails at startup.
func (c *PageCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Get reports a miss for any Redis error; the caller then fetches the page.
func (c *PageCache) Get(ctx context.Context, url string) ([]byte, bool) {
	val, err := c.Client.Get(ctx, keyPrefix+url).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("erro ao ler cache", slog.String("url", url), slog.Any("error", err))
		}
		return nil, false
	}
	return val, true
}

func (c *PageCache) Set(ctx context.Context, url string, body []byte) {
	if err := c.Client.Set(ctx, keyPrefix+url, body, c.TTL).Err(); err != nil {
		slog.Warn("erro ao gravar cache", slog.String("url", url), slog.Any("error", err))
	}
}

func (c *PageCache) Close() error {
	return c.Client.Close()
}
