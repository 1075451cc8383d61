// Package consumer reads records from Kafka as part of a consumer group and
// commits offsets only after the handler succeeds.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"cashwallet/internal/platform/kafka/producer"
)

// Message is a received record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes consumed messages. Returning an error leaves the offset
// uncommitted so the record is redelivered after a rebalance or restart.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

type Config struct {
	Brokers string
	GroupID string
	Topics  []string
}

// Consumer polls a consumer group and dispatches records to a Handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if cfg.Brokers == "" {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka consumer group not configured")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("kafka consumer topics not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(producer.SplitBrokers(cfg.Brokers)...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled or Stop is called.
func (c *Consumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped || c.done != nil {
		c.mu.Unlock()
		return errors.New("consumer already started or stopped")
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.mu.Unlock()
	defer close(c.done)

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})

		var committable []*kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			if err := c.handler.Handle(ctx, toMessage(r)); err != nil {
				c.logger.Error("failed to handle message",
					"topic", r.Topic,
					"partition", r.Partition,
					"offset", r.Offset,
					"error", err,
				)
				return
			}
			committable = append(committable, r)
		})

		if len(committable) > 0 {
			if err := c.client.CommitRecords(ctx, committable...); err != nil && ctx.Err() == nil {
				c.logger.Error("failed to commit offsets", "error", err)
			}
		}
	}
}

// Stop cancels the poll loop, waits for it to return and leaves the group.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	defer c.client.Close()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}
