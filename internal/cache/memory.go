package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryCache keeps at most maxEntries entries in process memory, evicting the
// least recently used. Entries live for the ttl given to Set, capped by the
// cache-wide ttl.
type MemoryCache struct {
	items *expirable.LRU[string, memoryItem]
	now   func() time.Time
}

func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		items: expirable.NewLRU[string, memoryItem](maxEntries, nil, ttl),
		now:   time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*Entry, bool, error) {
	item, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(item.expiresAt) {
		m.items.Remove(key)
		return nil, false, nil
	}
	entry := item.entry
	return &entry, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	body := make([]byte, len(entry.Body))
	copy(body, entry.Body)
	m.items.Add(key, memoryItem{
		entry:     Entry{Status: entry.Status, ContentType: entry.ContentType, Body: body},
		expiresAt: m.now().Add(ttl),
	})
	return nil
}

func (m *MemoryCache) Clear(_ context.Context) error {
	m.items.Purge()
	return nil
}

// Len is the number of entries held, expired ones included until evicted.
func (m *MemoryCache) Len() int {
	return m.items.Len()
}
