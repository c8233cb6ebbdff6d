// Package cache provides a TTL key-value store abstraction used for
// dashboard summary caching, with Redis-backed and in-memory implementations.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key-value cache.
type Store interface {
	// Get retrieves a value by key. The second return value reports whether
	// the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. Pass 0 for ttl to store without expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
