package kvstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
)

// DefaultMemoryEntries bounds a memory store built without an explicit limit.
const DefaultMemoryEntries = 10000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKVStore implements core.KVStore in process memory on an LRU cache.
// Once maxEntries keys are held, each Set evicts the least recently used one.
// Expired entries are dropped when read or when they age out of the LRU.
type MemoryKVStore struct {
	mu     sync.Mutex
	cache  *lru.Cache
	closed bool
	now    func() time.Time
}

// NewMemoryKVStore creates a store holding at most maxEntries keys. A
// non-positive maxEntries uses DefaultMemoryEntries.
func NewMemoryKVStore(maxEntries int) *MemoryKVStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &MemoryKVStore{
		cache: lru.New(maxEntries),
		now:   time.Now,
	}
}

// Get retrieves a value by key from the store.
func (m *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("KV store is closed")
	}
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}
	entry := v.(memoryEntry)
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores a key-value pair with an optional TTL.
func (m *MemoryKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := memoryEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("KV store is closed")
	}
	m.cache.Add(key, entry)
	return nil
}

// Delete removes a key from the store.
func (m *MemoryKVStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("KV store is closed")
	}
	m.cache.Remove(key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryKVStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}

// Close releases the entries.
func (m *MemoryKVStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cache.Clear()
	return nil
}

// MemoryKVStoreFactory creates process-local stores.
type MemoryKVStoreFactory struct{}

// Type returns the type identifier for this factory.
func (f *MemoryKVStoreFactory) Type() string {
	return "memory"
}

// Validate checks the memory store limit.
func (f *MemoryKVStoreFactory) Validate(config KVStoreConfig) error {
	if config.Type != "memory" {
		return fmt.Errorf("invalid type for memory factory: %s", config.Type)
	}
	if config.MaxEntries < 0 {
		return fmt.Errorf("max_entries must be non-negative, got: %d", config.MaxEntries)
	}
	return nil
}

// Create creates a memory store bounded by config.MaxEntries.
func (f *MemoryKVStoreFactory) Create(config KVStoreConfig) (core.KVStore, error) {
	return NewMemoryKVStore(config.MaxEntries), nil
}

// MemoryConfigValidator checks the cache section of type memory.
type MemoryConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *MemoryConfigValidator) Type() string {
	return "memory"
}

// Validate checks the memory section of the cache configuration.
func (v *MemoryConfigValidator) Validate(config *registry.InternalConfig) error {
	cache, err := cacheSection(config, "memory")
	if err != nil {
		return err
	}
	if cache.MaxEntries < 0 {
		return fmt.Errorf("max_entries must be non-negative, got: %d", cache.MaxEntries)
	}
	return nil
}

func init() {
	RegisterFactory(&MemoryKVStoreFactory{})
	registry.RegisterValidator(&MemoryConfigValidator{})
}
