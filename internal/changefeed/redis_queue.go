package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

// ListOperations are the list commands the Redis queue is built on.
// *kvstore.RedisKVStore implements them.
type ListOperations interface {
	// ListPush adds a value to the end of a list (RPUSH).
	ListPush(ctx context.Context, key string, value []byte) error

	// ListPopN removes and returns up to count elements from the head of a list.
	ListPopN(ctx context.Context, key string, count int) ([][]byte, error)

	// ListLength returns the length of a list (LLEN).
	ListLength(ctx context.Context, key string) (int64, error)
}

// RedisQueue implements core.ChangeQueue on a Redis list. Several processes
// can share the list; each event is delivered to exactly one of them.
type RedisQueue struct {
	ops    ListOperations
	key    string
	owned  interface{ Close() error }
	closed atomic.Bool
}

// NewRedisQueue creates a queue on the list stored under key.
func NewRedisQueue(ops ListOperations, key string) *RedisQueue {
	if key == "" {
		key = "mgmt:changefeed"
	}
	return &RedisQueue{ops: ops, key: key}
}

// Enqueue serializes event as JSON and appends it to the list.
func (q *RedisQueue) Enqueue(ctx context.Context, event *core.ChangeEvent) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	if err := prepare(event); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := q.ops.ListPush(ctx, q.key, data); err != nil {
		return fmt.Errorf("failed to enqueue change event: %w", err)
	}
	return nil
}

// Dequeue pops up to batchSize events from the head of the list. Entries
// that are not valid events are logged and skipped.
func (q *RedisQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.ChangeEvent, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	values, err := q.ops.ListPopN(ctx, q.key, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue change events: %w", err)
	}

	events := make([]*core.ChangeEvent, 0, len(values))
	for _, data := range values {
		var event core.ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[CHANGEFEED] ERROR: Skipping undecodable event on %s: %v", q.key, err)
			continue
		}
		events = append(events, &event)
	}
	return events, nil
}

// Size returns the length of the list, or 0 when it cannot be read.
func (q *RedisQueue) Size() int {
	if q.closed.Load() {
		return 0
	}
	length, err := q.ops.ListLength(context.Background(), q.key)
	if err != nil {
		return 0
	}
	return int(length)
}

// Close closes the queue, and the store it was created with by NewQueue.
func (q *RedisQueue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	if q.owned != nil {
		return q.owned.Close()
	}
	return nil
}
