package auditlog

import (
	"context"
	"sync"
)

// DefaultFallbackCapacity bounds the fallback stores.
const DefaultFallbackCapacity = 1000

// MemoryStore keeps the newest entries in process. It is the fallback when
// no Redis is configured, and the store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []*Entry // newest first
	capacity int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultFallbackCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.entries = append([]*Entry{&cp}, m.entries...)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[:m.capacity]
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, q Query) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectNewest(m.entries, q.Normalize()), nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// selectNewest returns up to q.Limit matching entries from a newest-first list.
func selectNewest(entries []*Entry, q Query) []*Entry {
	out := make([]*Entry, 0, min(len(entries), q.Limit))
	for _, e := range entries {
		if !q.Matches(e) {
			continue
		}
		out = append(out, e)
		if len(out) == q.Limit {
			break
		}
	}
	return out
}
