// Package cache wraps the Redis client used for the audit fallback list and
// short-lived read caches.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLOverview bounds how stale the dashboard overview may get. Wait-day
// figures move with the clock, not only with writes.
const TTLOverview = 5 * time.Minute

// ErrDisabled is returned by reads when no Redis URL was configured.
var ErrDisabled = fmt.Errorf("cache: disabled")

// Cache provides prefixed Redis operations. A zero-config Cache is disabled:
// writes are no-ops and reads return ErrDisabled.
type Cache struct {
	client    redis.UniversalClient
	keyPrefix string
	enabled   bool
}

// Config holds cache configuration.
type Config struct {
	URL       string
	KeyPrefix string
}

// New connects to Redis when cfg.URL is set.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.URL == "" {
		return &Cache{keyPrefix: prefixOrDefault(cfg.KeyPrefix)}, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, keyPrefix string) *Cache {
	return &Cache{
		client:    client,
		keyPrefix: prefixOrDefault(keyPrefix),
		enabled:   client != nil,
	}
}

func prefixOrDefault(p string) string {
	if p == "" {
		return "waitlist"
	}
	return p
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsEnabled reports whether a Redis connection is configured. A nil Cache
// is disabled.
func (c *Cache) IsEnabled() bool {
	return c != nil && c.enabled
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled {
		return ErrDisabled
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) key(parts ...string) string {
	key := c.keyPrefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// Get decodes the JSON value stored at key into dest. A missing key returns
// redis.Nil.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if !c.enabled {
		return ErrDisabled
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Set stores value as JSON with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// PushCapped prepends value (as JSON) to the list at key and trims the list
// to its newest capacity elements.
func (c *Cache) PushCapped(ctx context.Context, key string, value any, capacity int) error {
	if !c.enabled {
		return ErrDisabled
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	k := c.key(key)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, k, data)
	if capacity > 0 {
		pipe.LTrim(ctx, k, 0, int64(capacity-1))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Range returns the raw list elements at key between start and stop
// inclusive, newest first.
func (c *Cache) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	vals, err := c.client.LRange(ctx, c.key(key), start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// Len returns the length of the list at key.
func (c *Cache) Len(ctx context.Context, key string) (int64, error) {
	if !c.enabled {
		return 0, ErrDisabled
	}
	return c.client.LLen(ctx, c.key(key)).Result()
}
