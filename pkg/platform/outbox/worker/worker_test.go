package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashwallet/internal/platform/kafka/producer"
	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/outbox/metrics"
	"cashwallet/pkg/platform/outbox/store/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*producer.Message
	failKey  string
}

func (p *recordingPublisher) Produce(_ context.Context, msg *producer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if string(msg.Key) == p.failKey {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Healthy(context.Context) bool { return true }
func (p *recordingPublisher) Len() int                     { return 0 }
func (p *recordingPublisher) Close() error                 { return nil }

func (p *recordingPublisher) published() []*producer.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*producer.Message(nil), p.messages...)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPollPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	w := New(store, pub, WithTopic("accounts"), WithLogger(discard()), WithMetrics(m))

	entry := outbox.NewEntry("account", "acc-1", "account.created", []byte(`{"email":"jane@example.com"}`), time.Now())
	require.NoError(t, store.Append(ctx, entry))

	assert.Equal(t, 1, w.Poll(ctx))

	msgs := pub.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "accounts", msgs[0].Topic)
	assert.Equal(t, "acc-1", string(msgs[0].Key))
	assert.Equal(t, "account.created", msgs[0].Headers["event_type"])
	assert.Equal(t, entry.ID.String(), msgs[0].Headers["event_id"])

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PendingDepth))
}

func TestPollLeavesFailedEntryPending(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{failKey: "bad"}
	w := New(store, pub, WithLogger(discard()))

	require.NoError(t, store.Append(ctx, outbox.NewEntry("account", "bad", "account.created", nil, time.Now())))
	require.NoError(t, store.Append(ctx, outbox.NewEntry("account", "good", "account.created", nil, time.Now().Add(time.Millisecond))))

	assert.Equal(t, 1, w.Poll(ctx))
	pending, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bad", pending[0].AggregateID)
}

func TestRetentionPrunesPublished(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := New(store, &recordingPublisher{}, WithLogger(discard()), WithRetention(time.Hour), WithClock(func() time.Time { return now }))

	old := outbox.NewEntry("account", "old", "account.created", nil, now.Add(-3*time.Hour))
	require.NoError(t, store.Append(ctx, old))
	require.NoError(t, store.MarkProcessed(ctx, old.ID, now.Add(-2*time.Hour)))

	w.Poll(ctx)

	n, err := store.DeleteProcessedBefore(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n, "already pruned by the poll")
}

func TestStartStopDrains(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	w := New(store, pub, WithLogger(discard()), WithPollInterval(time.Hour))
	require.NoError(t, store.Append(ctx, outbox.NewEntry("account", "acc-1", "account.created", nil, time.Now())))

	w.Start()
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	assert.Len(t, pub.published(), 1)
}
