// Package worker relays pending outbox entries to Kafka.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cashwallet/internal/platform/kafka/producer"
	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/outbox/metrics"
)

const drainTimeout = 10 * time.Second

// Worker polls the outbox and publishes entries in creation order. Delivery is
// at least once: an entry published but not marked is published again.
type Worker struct {
	store        outbox.Store
	publisher    producer.Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention deletes published entries older than d on each poll. Zero keeps them.
func WithRetention(d time.Duration) Option {
	return func(w *Worker) {
		w.retention = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func New(store outbox.Store, publisher producer.Publisher, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		store:        store,
		publisher:    publisher,
		topic:        "cashwallet.account.events",
		batchSize:    100,
		pollInterval: 200 * time.Millisecond,
		logger:       slog.Default(),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the poll loop in the background until Stop.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			w.Poll(w.ctx)
		}
	}
}

// Poll publishes one batch and returns the number of entries published.
func (w *Worker) Poll(ctx context.Context) int {
	entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to fetch outbox entries", "error", err)
		w.incFailures()
		return 0
	}
	if w.metrics != nil && len(entries) > 0 {
		w.metrics.ObserveBatchSize(len(entries))
	}

	published := 0
	for _, entry := range entries {
		if err := w.publish(ctx, entry); err != nil {
			w.logger.Error("failed to publish outbox entry",
				"id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			w.incFailures()
			continue
		}
		if err := w.store.MarkProcessed(ctx, entry.ID, w.now()); err != nil {
			w.logger.Error("failed to mark outbox entry processed", "id", entry.ID, "error", err)
			continue
		}
		published++
		if w.metrics != nil {
			w.metrics.IncPublished()
		}
	}

	w.housekeep(ctx)
	return published
}

func (w *Worker) publish(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	err := w.publisher.Produce(ctx, &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.AggregateID),
		Value: entry.Payload,
		Headers: map[string]string{
			"event_id":       entry.ID.String(),
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
			"event_type":     entry.EventType,
		},
	})
	if err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.ObservePublishDuration(time.Since(start).Seconds())
	}
	return nil
}

func (w *Worker) housekeep(ctx context.Context) {
	if w.metrics != nil {
		if n, err := w.store.CountPending(ctx); err == nil {
			w.metrics.SetPendingDepth(n)
		}
	}
	if w.retention > 0 {
		if _, err := w.store.DeleteProcessedBefore(ctx, w.now().Add(-w.retention)); err != nil {
			w.logger.Warn("failed to prune published outbox entries", "error", err)
		}
	}
}

// drain publishes what is left after Stop, bounded by drainTimeout.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for ctx.Err() == nil {
		if w.Poll(ctx) == 0 {
			return
		}
	}
}

// Stop ends the poll loop after draining, or when ctx expires.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) incFailures() {
	if w.metrics != nil {
		w.metrics.IncPublishFailures()
	}
}
