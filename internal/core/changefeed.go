package core

import (
	"context"
	"time"
)

// OperationType represents the kind of write that produced a change event.
type OperationType string

const (
	// OperationCreate is emitted after an entity was inserted.
	OperationCreate OperationType = "CREATE"

	// OperationUpdate is emitted after an entity was updated.
	OperationUpdate OperationType = "UPDATE"

	// OperationDelete is emitted after an entity was deleted.
	OperationDelete OperationType = "DELETE"
)

// ChangeEvent describes one successful write to a management entity.
type ChangeEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Entity is the table of the changed entity (e.g. "apis").
	Entity string `json:"entity"`

	// Operation is the kind of write.
	Operation OperationType `json:"operation"`

	// Key is the primary key of the changed entity.
	Key string `json:"key"`

	// Timestamp is when the write completed.
	Timestamp time.Time `json:"timestamp"`
}

// ChangeQueue transports change events from the writers to the dispatcher.
type ChangeQueue interface {
	// Enqueue adds an event to the queue.
	Enqueue(ctx context.Context, event *ChangeEvent) error

	// Dequeue retrieves up to batchSize events.
	// Returns an empty slice if no events are available.
	Dequeue(ctx context.Context, batchSize int) ([]*ChangeEvent, error)

	// Size returns the (possibly approximate) number of pending events.
	Size() int

	// Close closes the queue and releases resources.
	Close() error
}
