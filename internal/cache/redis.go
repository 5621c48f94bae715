package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hilo-match/hilo/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// --- verification codes ---

func keyForCode(email string) string { return fmt.Sprintf("verify:code:%s", email) }

func keyForCodeRate(email string) string { return fmt.Sprintf("verify:rate:%s", email) }

// StoreCode saves a verification code for an email with the given TTL,
// overwriting any previous code.
func (c *RedisCache) StoreCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForCode(email), code, ttl).Err()
}

// GetCode returns the pending verification code for an email.
// A cache miss is returned as ("", nil).
func (c *RedisCache) GetCode(ctx context.Context, email string) (string, error) {
	val, err := c.Client.Get(ctx, keyForCode(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) DeleteCode(ctx context.Context, email string) error {
	return c.Client.Del(ctx, keyForCode(email)).Err()
}

// AcquireCodeRateLimit reports whether a verification email may be sent.
// The first caller inside the window wins; everyone else is throttled until
// the key expires.
func (c *RedisCache) AcquireCodeRateLimit(ctx context.Context, email string, window time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, keyForCodeRate(email), "1", window).Result()
}

// --- next scheduled match time ---

const nextMatchKey = "schedule:next"

// SetNextMatchTime caches the earliest pending slot time for the
// user-facing next-match-time query.
func (c *RedisCache) SetNextMatchTime(ctx context.Context, at time.Time, ttl time.Duration) error {
	return c.Client.Set(ctx, nextMatchKey, at.UTC().Format(time.RFC3339), ttl).Err()
}

// GetNextMatchTime returns the cached next match time, if any.
func (c *RedisCache) GetNextMatchTime(ctx context.Context) (time.Time, bool, error) {
	val, err := c.Client.Get(ctx, nextMatchKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, nil // treat a corrupt entry as a miss
	}
	return at, true, nil
}

// InvalidateNextMatchTime drops the cached next match time. Called whenever
// slots are created, deleted or executed.
func (c *RedisCache) InvalidateNextMatchTime(ctx context.Context) error {
	return c.Client.Del(ctx, nextMatchKey).Err()
}
