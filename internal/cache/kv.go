// Package cache persists computed study analyses keyed by study id and data
// version. Backends provide a small key-value surface; the Cache layer on
// top handles envelopes, version invalidation, and request collapsing.
package cache

import (
	"context"
	"errors"
)

// ErrNotFound marks a cache key with no stored entry.
var ErrNotFound = errors.New("cache entry not found")

// KV is the persistence surface behind the analysis cache. Put must replace
// any existing entry atomically: readers never observe a partial write.
type KV interface {
	// Get returns the stored bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data under key, replacing any previous entry.
	Put(ctx context.Context, key string, data []byte) error
	// Invalidate removes key. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key string) error
	// Keys lists all stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}
