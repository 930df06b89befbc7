package changefeed_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/mgmt-repository/internal/changefeed"
	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

// topic is an in-process stand-in for a single partition topic, serving as
// both writer and reader.
type topic struct {
	mu        sync.Mutex
	messages  []kafka.Message
	next      int
	committed []int64
	writeErr  error
	closed    int
}

func (tp *topic) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.writeErr != nil {
		return tp.writeErr
	}
	for _, m := range msgs {
		m.Offset = int64(len(tp.messages))
		tp.messages = append(tp.messages, m)
	}
	return nil
}

func (tp *topic) FetchMessage(ctx context.Context) (kafka.Message, error) {
	tp.mu.Lock()
	if tp.next < len(tp.messages) {
		m := tp.messages[tp.next]
		tp.next++
		tp.mu.Unlock()
		return m, nil
	}
	tp.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (tp *topic) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()
	for _, m := range msgs {
		tp.committed = append(tp.committed, m.Offset)
	}
	return nil
}

func (tp *topic) Close() error {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.closed++
	return nil
}

func TestKafkaQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := &topic{}
	q := changefeed.NewKafkaQueueFromClients(tp, tp, "mgmt-repository-changes", 10*time.Millisecond)

	event := changefeed.NewEvent("apis", core.OperationUpdate, "a1")
	require.NoError(t, q.Enqueue(ctx, event))
	require.NoError(t, q.Enqueue(ctx, changefeed.NewEvent("apis", core.OperationDelete, "a2")))
	require.Equal(t, 2, q.Size())

	produced := tp.messages[0]
	require.Equal(t, "apis:a1", string(produced.Key))
	var decoded core.ChangeEvent
	require.NoError(t, json.Unmarshal(produced.Value, &decoded))
	require.Equal(t, event.ID, decoded.ID)

	events, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "a1", events[0].Key)
	require.Equal(t, core.OperationDelete, events[1].Operation)
	require.Equal(t, []int64{0, 1}, tp.committed)
	require.Zero(t, q.Size())

	events, err = q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestKafkaQueue_CommitsBatchReadWhileCancelled(t *testing.T) {
	t.Parallel()
	tp := &topic{}
	q := changefeed.NewKafkaQueueFromClients(tp, tp, "changes", 20*time.Millisecond)
	for _, key := range []string{"a1", "a2"} {
		require.NoError(t, q.Enqueue(context.Background(), changefeed.NewEvent("apis", core.OperationUpdate, key)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	tp.mu.Lock()
	defer tp.mu.Unlock()
	require.Equal(t, []int64{0, 1}, tp.committed)
}

func TestKafkaQueue_SkipsUndecodableMessages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := &topic{}
	q := changefeed.NewKafkaQueueFromClients(tp, tp, "changes", 10*time.Millisecond)

	require.NoError(t, tp.WriteMessages(ctx, kafka.Message{Value: []byte("garbage")}))
	require.NoError(t, q.Enqueue(ctx, changefeed.NewEvent("apis", core.OperationCreate, "a1")))

	events, err := q.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, []int64{0, 1}, tp.committed)
}

func TestKafkaQueue_WriteFailure(t *testing.T) {
	t.Parallel()
	tp := &topic{writeErr: errors.New("leader not available")}
	q := changefeed.NewKafkaQueueFromClients(tp, tp, "changes", 10*time.Millisecond)

	err := q.Enqueue(context.Background(), changefeed.NewEvent("apis", core.OperationCreate, "a1"))
	require.ErrorIs(t, err, tp.writeErr)
	require.Zero(t, q.Size())
}

func TestKafkaQueue_Close(t *testing.T) {
	t.Parallel()
	tp := &topic{}
	q := changefeed.NewKafkaQueueFromClients(tp, tp, "changes", 10*time.Millisecond)

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	require.Equal(t, 2, tp.closed)

	_, err := q.Dequeue(context.Background(), 1)
	require.ErrorIs(t, err, changefeed.ErrQueueClosed)
	require.ErrorIs(t, q.Enqueue(context.Background(), changefeed.NewEvent("apis", core.OperationCreate, "a1")), changefeed.ErrQueueClosed)
}

func TestNewKafkaQueue_Validates(t *testing.T) {
	t.Parallel()
	_, err := changefeed.NewKafkaQueue(kafkaConfig(nil, "changes"))
	require.Error(t, err)
	_, err = changefeed.NewKafkaQueue(kafkaConfig([]string{"localhost:9092"}, ""))
	require.Error(t, err)
}
