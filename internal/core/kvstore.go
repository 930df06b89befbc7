package core

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by KVStore.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("key not found")

// KVStore defines the interface for the key-value store backing the entity cache.
// Implementations exist for Redis, DynamoDB and process memory.
type KVStore interface {
	// Get retrieves a value by key from the store.
	// Returns an error wrapping ErrCacheMiss if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair with an optional TTL.
	// If ttl is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the store. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the connection to the KV store and releases resources.
	Close() error
}
