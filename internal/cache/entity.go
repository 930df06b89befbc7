// Package cache puts a read-through key-value cache in front of the
// repositories.
//
// Only lookups by id are cached. The store is a helper: when it fails the
// error is logged and the call goes to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

const generationSlots = 1024

// Invalidator removes cached entities. It is shared by the repository
// decorators and the change feed listener.
//
// Every invalidation bumps a generation counter for the key. A load that saw
// another generation when it started must not leave its result in the store.
// Keys share counters by hash, so a collision only costs a skipped Set.
type Invalidator struct {
	store       core.KVStore
	keys        *KeyBuilder
	generations [generationSlots]atomic.Uint64
}

// NewInvalidator creates an Invalidator for the keys of namespace in store.
func NewInvalidator(store core.KVStore, namespace string) *Invalidator {
	return &Invalidator{store: store, keys: NewKeyBuilder(namespace)}
}

func (inv *Invalidator) generation(key string) *atomic.Uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &inv.generations[h.Sum32()%generationSlots]
}

// Invalidate drops the cached copy of the entity stored in table under id.
func (inv *Invalidator) Invalidate(ctx context.Context, table, id string) error {
	key := inv.keys.BuildKey(table, id)
	inv.generation(key).Add(1)
	if err := inv.store.Delete(ctx, key); err != nil {
		log.Printf("[CACHE] ERROR: Failed to invalidate %s: %v", key, err)
		return err
	}
	core.Debugf("[CACHE] Invalidated %s", key)
	return nil
}

type loaded[T any] struct {
	entity *T
	data   []byte
}

// entityCache caches the entities of one table as JSON documents.
type entityCache[T any] struct {
	*Invalidator
	table string
	ttl   time.Duration
	group singleflight.Group
}

func newEntityCache[T any](inv *Invalidator, table string, ttl time.Duration) *entityCache[T] {
	return &entityCache[T]{Invalidator: inv, table: table, ttl: ttl}
}

// get returns the cached entity for id, calling load on a miss. Concurrent
// misses for the same key and generation share one load. A nil entity is
// never cached, and neither is a load overtaken by an invalidation.
func (c *entityCache[T]) get(ctx context.Context, id string, load func(context.Context, string) (*T, error)) (*T, error) {
	key := c.keys.BuildKey(c.table, id)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var e T
		if err := json.Unmarshal(data, &e); err == nil {
			core.Debugf("[CACHE] Hit %s", key)
			return &e, nil
		}
		log.Printf("[CACHE] ERROR: Dropping undecodable entry %s: %v", key, err)
		_ = c.store.Delete(ctx, key)
	case errors.Is(err, core.ErrCacheMiss):
		core.Debugf("[CACHE] Miss %s", key)
	default:
		log.Printf("[CACHE] ERROR: Failed to read %s, using database: %v", key, err)
	}

	gen := c.generation(key)
	started := gen.Load()
	v, err, shared := c.group.Do(key+"#"+strconv.FormatUint(started, 10), func() (interface{}, error) {
		e, err := load(ctx, id)
		if err != nil || e == nil {
			return loaded[T]{entity: e}, err
		}
		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("[CACHE] ERROR: Failed to encode %s: %v", key, err)
			return loaded[T]{entity: e}, nil
		}
		if gen.Load() != started {
			core.Debugf("[CACHE] Not storing %s, invalidated during load", key)
			return loaded[T]{entity: e, data: data}, nil
		}
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			log.Printf("[CACHE] ERROR: Failed to store %s: %v", key, err)
		} else if gen.Load() != started {
			// Invalidated between the check and Set; its Delete may have run first.
			_ = c.store.Delete(ctx, key)
		}
		return loaded[T]{entity: e, data: data}, nil
	})
	if err != nil {
		return nil, err
	}

	result := v.(loaded[T])
	if !shared || result.data == nil {
		return result.entity, nil
	}
	// Every caller of a shared load gets its own copy.
	var e T
	if err := json.Unmarshal(result.data, &e); err != nil {
		return result.entity, nil
	}
	return &e, nil
}

// evict invalidates id, logging instead of failing.
func (c *entityCache[T]) evict(ctx context.Context, id string) {
	if id == "" {
		return
	}
	_ = c.Invalidate(ctx, c.table, id)
}
