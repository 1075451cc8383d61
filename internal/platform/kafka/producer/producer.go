// Package producer publishes domain events to Kafka through franz-go.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"cashwallet/internal/platform/config"
)

var ErrClosed = errors.New("producer is closed")

// Message is one record to publish.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Publisher is satisfied by Producer and NoopProducer.
type Publisher interface {
	Produce(ctx context.Context, msg *Message) error
	Healthy(ctx context.Context) bool
	Len() int
	Close() error
}

// Producer wraps a franz-go client configured for synchronous, acknowledged writes.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// New connects to the configured brokers. Brokers must be set; callers fall
// back to NewNoopProducer when Kafka is disabled.
func New(cfg config.Kafka, logger *slog.Logger) (*Producer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(SplitBrokers(cfg.Brokers)...),
		kgo.RequiredAcks(acksFor(cfg.Acks)),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
	}
	if cfg.Acks == "0" || cfg.Acks == "1" {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client, logger: logger}, nil
}

func acksFor(setting string) kgo.Acks {
	switch setting {
	case "0":
		return kgo.NoAck()
	case "1":
		return kgo.LeaderAck()
	default:
		return kgo.AllISRAcks()
	}
}

// SplitBrokers turns a comma separated broker list into seed addresses.
func SplitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func toRecord(msg *Message) *kgo.Record {
	headers := make([]kgo.RecordHeader, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return &kgo.Record{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

// Produce blocks until the broker acknowledges the record.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.client.ProduceSync(ctx, toRecord(msg)).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// Close flushes buffered records for up to 10 seconds, then disconnects.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka producer closed with unflushed records", "error", err)
	}
	p.client.Close()
	return nil
}

func (p *Producer) Healthy(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	return p.client.Ping(ctx) == nil
}

// Len returns the number of records buffered but not yet acknowledged.
func (p *Producer) Len() int {
	return int(p.client.BufferedProduceRecords())
}

// NoopProducer drops every message. Used when Kafka is not configured.
type NoopProducer struct {
	logger *slog.Logger
}

func NewNoopProducer(logger *slog.Logger) *NoopProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopProducer{logger: logger}
}

func (p *NoopProducer) Produce(ctx context.Context, msg *Message) error {
	p.logger.DebugContext(ctx, "kafka disabled, dropping message", "topic", msg.Topic)
	return nil
}

func (p *NoopProducer) Healthy(context.Context) bool { return true }
func (p *NoopProducer) Len() int                     { return 0 }
func (p *NoopProducer) Close() error                 { return nil }

var (
	_ Publisher = (*Producer)(nil)
	_ Publisher = (*NoopProducer)(nil)
)
