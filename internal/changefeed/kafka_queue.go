package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
)

// MessageWriter produces messages. *kafka.Writer implements it.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageReader consumes messages of a consumer group. *kafka.Reader
// implements it.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue implements core.ChangeQueue on a Kafka topic. Events are keyed
// by entity and primary key, so the changes of one entity stay ordered.
//
// With a GroupID shared by several processes each event reaches one of
// them; NewQueue gives every caching process its own GroupID so events
// reach all of them.
type KafkaQueue struct {
	writer      MessageWriter
	reader      MessageReader
	topic       string
	readTimeout time.Duration

	mu     sync.Mutex
	closed bool
	size   atomic.Int64
}

// NewKafkaQueue connects a writer and a consumer group reader to the
// configured topic.
func NewKafkaQueue(config registry.InternalKafkaConfig) (*KafkaQueue, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if config.GroupID == "" {
		config.GroupID = registry.DefaultKafkaGroupID
	}

	log.Printf("[KAFKA] Brokers: %v, topic: %s, consumer group: %s", config.Brokers, config.Topic, config.GroupID)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		BatchBytes:   int64(config.MaxMessageBytes),
		MaxAttempts:  3,
		Async:        false,
	}

	// New consumer groups start at the end of the topic: older events
	// concern cache entries this process never filled.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		MaxWait:     config.MaxWait,
		StartOffset: kafka.LastOffset,
	})

	return NewKafkaQueueFromClients(writer, reader, config.Topic, config.ReadTimeout), nil
}

// NewKafkaQueueFromClients builds a queue on an existing writer and reader.
// readTimeout bounds the wait for the first message of a batch.
func NewKafkaQueueFromClients(writer MessageWriter, reader MessageReader, topic string, readTimeout time.Duration) *KafkaQueue {
	if readTimeout <= 0 {
		readTimeout = time.Second
	}
	return &KafkaQueue{
		writer:      writer,
		reader:      reader,
		topic:       topic,
		readTimeout: readTimeout,
	}
}

func (q *KafkaQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Enqueue produces event to the topic and waits for the acknowledgement.
func (q *KafkaQueue) Enqueue(ctx context.Context, event *core.ChangeEvent) error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	if err := prepare(event); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.Entity + ":" + event.Key),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(event.Operation)},
			{Key: "entity", Value: []byte(event.Entity)},
		},
	}

	start := time.Now()
	if err := q.writer.WriteMessages(ctx, message); err != nil {
		log.Printf("[KAFKA] ERROR: Failed to write event %s to topic %s: %v (duration: %v)", event.ID, q.topic, err, time.Since(start))
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	q.size.Add(1)

	core.Debugf("[KAFKA] Produced %s %s/%s to topic %s (duration: %v)", event.Operation, event.Entity, event.Key, q.topic, time.Since(start))
	return nil
}

// Dequeue consumes up to batchSize events. It waits at most the read
// timeout for each message and commits the offsets of the returned batch,
// even when ctx ends while the batch is read, since the caller now owns it.
func (q *KafkaQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.ChangeEvent, error) {
	if q.isClosed() {
		return nil, ErrQueueClosed
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	events := make([]*core.ChangeEvent, 0, batchSize)
	messages := make([]kafka.Message, 0, batchSize)

	for i := 0; i < batchSize; i++ {
		readCtx, cancel := context.WithTimeout(ctx, q.readTimeout)
		message, err := q.reader.FetchMessage(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("[KAFKA] ERROR: Failed to read from topic %s: %v", q.topic, err)
			}
			break
		}
		messages = append(messages, message)

		var event core.ChangeEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			log.Printf("[KAFKA] ERROR: Skipping undecodable message (partition %d, offset %d): %v", message.Partition, message.Offset, err)
			continue
		}
		events = append(events, &event)
	}

	if len(messages) > 0 {
		commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.readTimeout)
		err := q.reader.CommitMessages(commitCtx, messages...)
		cancel()
		if err != nil {
			log.Printf("[KAFKA] WARNING: Failed to commit %d offsets on topic %s: %v", len(messages), q.topic, err)
		}
		if q.size.Add(-int64(len(messages))) < 0 {
			q.size.Store(0)
		}
		core.Debugf("[KAFKA] Consumed %d events from topic %s", len(events), q.topic)
	}
	return events, nil
}

// Size returns the number of events produced minus the number consumed by
// this process. Kafka offers no exact queue length.
func (q *KafkaQueue) Size() int {
	return int(q.size.Load())
}

// Close closes the writer and the reader.
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	if err := q.writer.Close(); err != nil {
		log.Printf("[KAFKA] ERROR: Failed to close writer: %v", err)
	}
	if err := q.reader.Close(); err != nil {
		log.Printf("[KAFKA] ERROR: Failed to close reader: %v", err)
		return err
	}
	return nil
}
