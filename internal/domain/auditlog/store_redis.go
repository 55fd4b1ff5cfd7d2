package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinic/waitlist/internal/platform/cache"
)

const fallbackKey = "audit:fallback"

// RedisStore keeps a capped list of entries in Redis. It holds entries the
// primary store could not accept, so they survive a restart.
type RedisStore struct {
	cache    *cache.Cache
	capacity int
}

func NewRedisStore(c *cache.Cache, capacity int) *RedisStore {
	if capacity <= 0 {
		capacity = DefaultFallbackCapacity
	}
	return &RedisStore{cache: c, capacity: capacity}
}

func (r *RedisStore) Append(ctx context.Context, e *Entry) error {
	if err := r.cache.PushCapped(ctx, fallbackKey, e, r.capacity); err != nil {
		return fmt.Errorf("push audit fallback: %w", err)
	}
	return nil
}

func (r *RedisStore) Recent(ctx context.Context, q Query) ([]*Entry, error) {
	raw, err := r.cache.Range(ctx, fallbackKey, 0, int64(r.capacity-1))
	if err != nil {
		return nil, fmt.Errorf("read audit fallback: %w", err)
	}
	entries := make([]*Entry, 0, len(raw))
	for _, b := range raw {
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return selectNewest(entries, q.Normalize()), nil
}
