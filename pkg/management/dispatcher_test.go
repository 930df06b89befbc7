package management_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/mgmt-repository/internal/cache"
	"github.com/rzpsarthak13/mgmt-repository/internal/changefeed"
	"github.com/rzpsarthak13/mgmt-repository/internal/kvstore"
	"github.com/rzpsarthak13/mgmt-repository/pkg/management"
)

// recorder collects delivered events.
type recorder struct {
	mu     sync.Mutex
	events []*management.ChangeEvent
}

func (r *recorder) HandleChange(_ context.Context, event *management.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.events))
	for i, e := range r.events {
		keys[i] = e.Key
	}
	return keys
}

func fastConfig() management.DispatcherConfig {
	return management.DispatcherConfig{Rate: 1000, BatchSize: 10, PollInterval: 5 * time.Millisecond}
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := changefeed.NewMemoryQueue(100)
	for _, key := range []string{"a1", "a2", "a3"} {
		require.NoError(t, q.Enqueue(ctx, changefeed.NewEvent("apis", management.OperationUpdate, key)))
	}

	d := management.NewDispatcher(q, fastConfig())
	rec := &recorder{}
	failing := management.ListenerFunc(func(context.Context, *management.ChangeEvent) error {
		return errors.New("listener down")
	})
	d.AddListener(failing)
	d.AddListener(rec)

	require.NoError(t, d.Start(ctx))
	require.NoError(t, d.Start(ctx))
	require.True(t, d.IsRunning())

	require.Eventually(t, func() bool { return len(rec.keys()) == 3 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"a1", "a2", "a3"}, rec.keys())

	require.NoError(t, q.Enqueue(ctx, changefeed.NewEvent("apis", management.OperationDelete, "a4")))
	require.Eventually(t, func() bool { return len(rec.keys()) == 4 }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())
	require.False(t, d.IsRunning())
	require.Zero(t, d.QueueSize())
}

func TestDispatcher_RestartsAfterStop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := changefeed.NewMemoryQueue(100)
	d := management.NewDispatcher(q, fastConfig())
	rec := &recorder{}
	d.AddListener(rec)

	require.NoError(t, d.Start(ctx))
	require.NoError(t, d.Stop())

	require.NoError(t, q.Enqueue(ctx, changefeed.NewEvent("apis", management.OperationCreate, "a1")))
	require.NoError(t, d.Start(ctx))
	require.Eventually(t, func() bool { return len(rec.keys()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Stop())
}

func TestDispatcher_StopsWithContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	q := changefeed.NewMemoryQueue(10)
	d := management.NewDispatcher(q, fastConfig())
	rec := &recorder{}
	d.AddListener(rec)

	require.NoError(t, d.Start(ctx))
	cancel()
	require.Eventually(t, func() bool { return !d.IsRunning() }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Stop())

	require.NoError(t, q.Enqueue(context.Background(), changefeed.NewEvent("apis", management.OperationUpdate, "a1")))
	require.NoError(t, d.Start(context.Background()))
	require.True(t, d.IsRunning())
	require.Eventually(t, func() bool { return len(rec.keys()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Stop())
}

func TestDispatcher_StopDeliversDequeuedBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := changefeed.NewMemoryQueue(100)
	keys := []string{"a1", "a2", "a3", "a4", "a5"}
	for _, key := range keys {
		require.NoError(t, q.Enqueue(ctx, changefeed.NewEvent("apis", management.OperationDelete, key)))
	}

	d := management.NewDispatcher(q, management.DispatcherConfig{Rate: 1, BatchSize: 10, PollInterval: time.Second})
	rec := &recorder{}
	var cancelled atomic.Int32
	d.AddListener(management.ListenerFunc(func(ctx context.Context, _ *management.ChangeEvent) error {
		if ctx.Err() != nil {
			cancelled.Add(1)
		}
		return nil
	}))
	d.AddListener(rec)

	require.NoError(t, d.Start(ctx))
	require.Eventually(t, func() bool { return len(rec.keys()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Stop())

	require.Equal(t, keys, rec.keys())
	require.Zero(t, cancelled.Load())
	require.Zero(t, d.QueueSize())
}

func TestCacheInvalidationListener(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemoryKVStore(0)
	require.NoError(t, store.Set(ctx, "mgmt:apis:a1", []byte("{}"), 0))
	require.NoError(t, store.Set(ctx, "mgmt:apis:a2", []byte("{}"), 0))

	l := management.CacheInvalidationListener(cache.NewInvalidator(store, "mgmt"))
	require.NoError(t, l.HandleChange(ctx, changefeed.NewEvent("apis", management.OperationUpdate, "a1")))

	_, err := store.Get(ctx, "mgmt:apis:a1")
	require.Error(t, err)
	_, err = store.Get(ctx, "mgmt:apis:a2")
	require.NoError(t, err)
}
