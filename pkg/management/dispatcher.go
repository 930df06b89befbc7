package management

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/mgmt-repository/internal/cache"
	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

// Listener receives the change events drained by a Dispatcher.
type Listener interface {
	HandleChange(ctx context.Context, event *ChangeEvent) error
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(ctx context.Context, event *ChangeEvent) error

// HandleChange calls f.
func (f ListenerFunc) HandleChange(ctx context.Context, event *ChangeEvent) error {
	return f(ctx, event)
}

// DispatcherConfig contains configuration for the dispatcher.
type DispatcherConfig struct {
	// Rate is the maximum number of events delivered per second.
	Rate int

	// BatchSize is how many events to dequeue at once.
	BatchSize int

	// PollInterval is how long to wait before polling an empty queue again.
	PollInterval time.Duration
}

// DefaultDispatcherConfig returns sensible defaults for the dispatcher.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Rate:         200,
		BatchSize:    100,
		PollInterval: 500 * time.Millisecond,
	}
}

// Dispatcher drains a change queue in the background and hands every event
// to the registered listeners, at most Rate events per second. A listener
// error is logged; the event is not retried.
type Dispatcher struct {
	mu        sync.RWMutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	listeners []Listener

	queue  core.ChangeQueue
	config DispatcherConfig
}

// NewDispatcher creates a dispatcher for queue. Zero config values take
// their defaults.
func NewDispatcher(queue core.ChangeQueue, config DispatcherConfig) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if config.Rate <= 0 {
		config.Rate = defaults.Rate
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}

	return &Dispatcher{
		queue:  queue,
		config: config,
	}
}

// AddListener registers l. Listeners are called in registration order.
func (d *Dispatcher) AddListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Start begins the dispatcher goroutine. It is non-blocking; call Stop to
// shut the dispatcher down. The dispatcher also stops when ctx ends, after
// which Start may be called again.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		log.Printf("[DISPATCHER] Already running")
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.mu.Unlock()

	go d.run(ctx)
	log.Printf("[DISPATCHER] Started with rate: %d events/sec", d.config.Rate)
	return nil
}

// Stop stops the dispatcher and waits for the dequeued events to be delivered.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.Unlock()

	close(stopCh)
	<-doneCh
	log.Printf("[DISPATCHER] Stopped")
	return nil
}

// IsRunning returns whether the dispatcher is currently running.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// QueueSize returns the number of pending events.
func (d *Dispatcher) QueueSize() int {
	return d.queue.Size()
}

// run drains the queue until Stop or ctx ends. Events already dequeued are
// always delivered: the queue has given them up, so a stop in the middle of a
// batch delivers the rest without rate limiting.
func (d *Dispatcher) run(ctx context.Context) {
	d.mu.RLock()
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.RUnlock()
	defer func() {
		d.mu.Lock()
		if d.doneCh == doneCh {
			d.running = false
		}
		d.mu.Unlock()
		close(doneCh)
	}()

	deliverCtx := context.WithoutCancel(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(d.config.Rate), 1)
	delivered := 0
	started := time.Now()

	for {
		events, err := d.queue.Dequeue(ctx, d.config.BatchSize)
		if err != nil && ctx.Err() == nil {
			log.Printf("[DISPATCHER] Dequeue error: %v", err)
		}

		for i, event := range events {
			if event == nil {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				rest := events[i:]
				log.Printf("[DISPATCHER] Stopping, delivering %d remaining events in batch", len(rest))
				for _, event := range rest {
					if event != nil {
						d.deliver(deliverCtx, event)
						delivered++
					}
				}
				log.Printf("[DISPATCHER] Delivered %d events in %v", delivered, time.Since(started))
				return
			}
			d.deliver(deliverCtx, event)
			delivered++
		}

		if len(events) > 0 && ctx.Err() == nil {
			continue
		}

		select {
		case <-ctx.Done():
			log.Printf("[DISPATCHER] Delivered %d events in %v", delivered, time.Since(started))
			return
		case <-time.After(d.config.PollInterval):
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *ChangeEvent) {
	d.mu.RLock()
	listeners := d.listeners
	d.mu.RUnlock()

	core.Debugf("[DISPATCHER] Delivering %s %s/%s (%s)", event.Operation, event.Entity, event.Key, event.ID)
	for _, l := range listeners {
		if err := l.HandleChange(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[DISPATCHER] ERROR: Listener failed on %s %s/%s: %v", event.Operation, event.Entity, event.Key, err)
		}
	}
}

// CacheInvalidationListener drops the cached copy of every changed entity.
func CacheInvalidationListener(inv *cache.Invalidator) Listener {
	return ListenerFunc(func(ctx context.Context, event *ChangeEvent) error {
		return inv.Invalidate(ctx, event.Entity, event.Key)
	})
}
