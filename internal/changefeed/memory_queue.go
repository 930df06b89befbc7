package changefeed

import (
	"context"
	"sync"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

// MemoryQueue implements core.ChangeQueue with a buffered channel. Events
// are lost when the process exits.
type MemoryQueue struct {
	queue  chan *core.ChangeEvent
	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates a new in-memory change queue.
// bufferSize is the maximum number of events that can be buffered.
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &MemoryQueue{
		queue: make(chan *core.ChangeEvent, bufferSize),
	}
}

// Enqueue adds an event to the queue. It fails with ErrQueueFull instead of
// blocking the writer.
func (q *MemoryQueue) Enqueue(ctx context.Context, event *core.ChangeEvent) error {
	if err := prepare(event); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue retrieves up to batchSize events in the order they were enqueued.
func (q *MemoryQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.ChangeEvent, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	events := make([]*core.ChangeEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		select {
		case event, ok := <-q.queue:
			if !ok {
				return events, nil
			}
			events = append(events, event)
		case <-ctx.Done():
			return events, ctx.Err()
		default:
			return events, nil
		}
	}
	return events, nil
}

// Size returns the current number of events in the queue.
func (q *MemoryQueue) Size() int {
	return len(q.queue)
}

// Close closes the queue. Buffered events can still be dequeued.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.queue)
	return nil
}
