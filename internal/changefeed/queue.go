// Package changefeed publishes the writes made through the repositories as
// change events and transports them to the dispatcher.
package changefeed

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

var (
	// ErrQueueClosed is returned when using a closed queue.
	ErrQueueClosed = errors.New("change queue is closed")

	// ErrQueueFull is returned by the memory queue when its buffer is full.
	ErrQueueFull = errors.New("change queue is full")

	// ErrInvalidEvent is returned when an event misses its entity or key.
	ErrInvalidEvent = errors.New("invalid change event")
)

const defaultBatchSize = 100

// NewEvent creates an event with a fresh id, stamped now.
func NewEvent(entity string, operation core.OperationType, key string) *core.ChangeEvent {
	return &core.ChangeEvent{
		ID:        uuid.NewString(),
		Entity:    entity,
		Operation: operation,
		Key:       key,
		Timestamp: time.Now().UTC(),
	}
}

// prepare checks event and fills in its id and timestamp when missing.
func prepare(event *core.ChangeEvent) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if event.Entity == "" {
		return fmt.Errorf("%w: entity is required", ErrInvalidEvent)
	}
	if event.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidEvent)
	}
	switch event.Operation {
	case core.OperationCreate, core.OperationUpdate, core.OperationDelete:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidEvent, event.Operation)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return nil
}
