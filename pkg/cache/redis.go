package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNetwork marks failures to reach a remote cache backend.
var ErrNetwork = errors.New("cache backend unreachable")

// Retry defaults for [RedisOptions].
const (
	DefaultRedisAttempts   = 3
	DefaultRedisRetryDelay = 100 * time.Millisecond
)

// RedisCache stores entries in Redis. Expiry is delegated to Redis TTLs.
// Network failures are retried with exponential backoff; any other error
// is returned at once.
type RedisCache struct {
	client   redis.UniversalClient
	prefix   string
	attempts int
	delay    time.Duration
}

// RedisOptions configures [NewRedisCache].
type RedisOptions struct {
	// URL is a redis:// or rediss:// URL. It takes precedence over Addr.
	URL string

	// Addr is host:port, used when URL is empty.
	Addr string

	// Prefix is prepended to every key, e.g. "netgraph:".
	Prefix string

	// Attempts bounds the tries per operation. Zero means
	// DefaultRedisAttempts.
	Attempts int

	// RetryDelay is the first backoff delay, doubled after every failed
	// try. Zero means DefaultRedisRetryDelay.
	RetryDelay time.Duration
}

// NewRedisCache connects to Redis and pings it once.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	var ropts *redis.Options
	switch {
	case opts.URL != "":
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		ropts = parsed
	case opts.Addr != "":
		ropts = &redis.Options{Addr: opts.Addr}
	default:
		return nil, errors.New("redis: url or addr is required")
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis %s: %v", ErrNetwork, ropts.Addr, err)
	}
	return NewRedisCacheFromClient(client, opts), nil
}

// NewRedisCacheFromClient wraps an existing client, e.g. a cluster client.
// The connection fields of opts are ignored.
func NewRedisCacheFromClient(client redis.UniversalClient, opts RedisOptions) *RedisCache {
	c := &RedisCache{client: client, prefix: opts.Prefix, attempts: opts.Attempts, delay: opts.RetryDelay}
	if c.attempts <= 0 {
		c.attempts = DefaultRedisAttempts
	}
	if c.delay <= 0 {
		c.delay = DefaultRedisRetryDelay
	}
	return c
}

// Get implements [Cache].
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.retry(ctx, func() error {
		b, err := c.client.Get(ctx, c.prefix+key).Bytes()
		data = b
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements [Cache].
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.retry(ctx, func() error {
		return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
	})
}

// Delete implements [Cache].
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.retry(ctx, func() error {
		return c.client.Del(ctx, c.prefix+key).Err()
	})
}

// Clear implements [Clearer]. Keys under the cache prefix are scanned and
// deleted when their [KindOf] matches; keys outside the prefix are never
// touched.
func (c *RedisCache) Clear(ctx context.Context, kinds ...Kind) (int, error) {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	removed := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if len(want) > 0 && !want[KindOf(strings.TrimPrefix(key, c.prefix))] {
			continue
		}
		err := c.retry(ctx, func() error { return c.client.Del(ctx, key).Err() })
		if err != nil {
			return removed, err
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, c.wrap(err)
	}
	return removed, nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// retry runs op until it succeeds, fails with a non-network error, or the
// attempts are used up. redis.Nil passes through unchanged.
func (c *RedisCache) retry(ctx context.Context, op func() error) error {
	delay := c.delay
	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil || errors.Is(err, redis.Nil) || !transient(err) {
			return err
		}
		if attempt == c.attempts {
			return c.wrap(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}

func (c *RedisCache) wrap(err error) error {
	if transient(err) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return err
}

// transient reports whether err is a network failure worth retrying.
func transient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
