// Package cache stores rendered pages for a limited time.
package cache

import (
	"context"
	"time"
)

// Entry is a cached HTTP response.
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
}

// Cache is a page cache keyed by request.
type Cache interface {
	// Get returns the entry for key, or ok == false when it is missing or expired.
	Get(ctx context.Context, key string) (entry *Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	Clear(ctx context.Context) error
}
