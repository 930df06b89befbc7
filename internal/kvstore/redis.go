package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
)

// RedisKVStore implements the core.KVStore interface using Redis.
type RedisKVStore struct {
	client *redis.Client
	closed atomic.Bool
}

// NewRedisKVStore connects to the first endpoint of config.
func NewRedisKVStore(config KVStoreConfig) (*RedisKVStore, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	// Only single-node Redis is supported.
	client := redis.NewClient(&redis.Options{
		Addr:         config.Endpoints[0],
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[REDIS] Connected to %s (db %d)", config.Endpoints[0], config.DB)
	return NewRedisKVStoreFromClient(client), nil
}

// NewRedisKVStoreFromClient wraps an existing client.
func NewRedisKVStoreFromClient(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

// Get retrieves a value by key from the store.
func (r *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("KV store is closed")
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		core.Debugf("[REDIS] Key not found: %s", key)
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, key)
	}
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to get key %s: %v", key, err)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	core.Debugf("[REDIS] Retrieved key %s (value size: %d bytes)", key, len(val))
	return val, nil
}

// Set stores a key-value pair with an optional TTL.
func (r *RedisKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.closed.Load() {
		return fmt.Errorf("KV store is closed")
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[REDIS] ERROR: Failed to set key %s: %v", key, err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	core.Debugf("[REDIS] Stored key %s (value size: %d bytes, TTL: %v)", key, len(value), ttl)
	return nil
}

// Delete removes a key from the store.
func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return fmt.Errorf("KV store is closed")
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

// Close closes the connection to the KV store.
func (r *RedisKVStore) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.client.Close()
}

// ListPush adds a value to the end of a list (RPUSH).
func (r *RedisKVStore) ListPush(ctx context.Context, key string, value []byte) error {
	if r.closed.Load() {
		return fmt.Errorf("KV store is closed")
	}
	return r.client.RPush(ctx, key, value).Err()
}

// ListPopN removes and returns up to count elements from the head of a list
// (LPOP key count). An empty or missing list yields no elements.
func (r *RedisKVStore) ListPopN(ctx context.Context, key string, count int) ([][]byte, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("KV store is closed")
	}
	vals, err := r.client.LPopCount(ctx, key, count).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	result := make([][]byte, len(vals))
	for i, v := range vals {
		result[i] = []byte(v)
	}
	return result, nil
}

// ListLength returns the length of a list (LLEN).
func (r *RedisKVStore) ListLength(ctx context.Context, key string) (int64, error) {
	if r.closed.Load() {
		return 0, fmt.Errorf("KV store is closed")
	}
	return r.client.LLen(ctx, key).Result()
}

// RedisKVStoreFactory creates Redis KV store instances.
type RedisKVStoreFactory struct{}

// Type returns the type identifier for this factory.
func (f *RedisKVStoreFactory) Type() string {
	return "redis"
}

// Validate validates the Redis-specific configuration.
func (f *RedisKVStoreFactory) Validate(config KVStoreConfig) error {
	if config.Type != "redis" {
		return fmt.Errorf("invalid type for Redis factory: %s", config.Type)
	}
	return validateRedis(config.Endpoints, config.DB, config.PoolSize, config.MinIdleConns, config.DialTimeout)
}

// Create creates a new Redis KV store instance based on the provided configuration.
func (f *RedisKVStoreFactory) Create(config KVStoreConfig) (core.KVStore, error) {
	redisStore, err := NewRedisKVStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis KV store: %w", err)
	}
	return redisStore, nil
}

// RedisConfigValidator validates the cache section for the Redis backend.
type RedisConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *RedisConfigValidator) Type() string {
	return "redis"
}

// Validate validates the Redis-specific configuration in the internal config.
func (v *RedisConfigValidator) Validate(config *registry.InternalConfig) error {
	cache, err := cacheSection(config, "redis")
	if err != nil {
		return err
	}
	if cache.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", cache.MaxRetries)
	}
	rc := cache.RedisConfig
	return validateRedis(rc.Endpoints, rc.DB, rc.PoolSize, rc.MinIdleConns, cache.DialTimeout)
}

func validateRedis(endpoints []string, db, poolSize, minIdleConns int, dialTimeout time.Duration) error {
	if len(endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	// Redis supports 0-15 databases
	if db < 0 || db > 15 {
		return fmt.Errorf("Redis DB must be between 0 and 15, got: %d", db)
	}
	if poolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", poolSize)
	}
	if minIdleConns < 0 {
		return fmt.Errorf("min_idle_conns must be non-negative, got: %d", minIdleConns)
	}
	if dialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", dialTimeout)
	}
	return nil
}

// init auto-registers the Redis factory and validator on package initialization.
func init() {
	RegisterFactory(&RedisKVStoreFactory{})
	registry.RegisterValidator(&RedisConfigValidator{})
}
