package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/sentinel"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	second := outbox.NewEntry("account", "b", "account.created", []byte(`{}`), base.Add(time.Second))
	first := outbox.NewEntry("account", "a", "account.created", []byte(`{}`), base)
	require.NoError(t, s.Append(ctx, second))
	require.NoError(t, s.Append(ctx, first))

	pending, err := s.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].AggregateID, "oldest first")

	limited, err := s.FetchUnprocessed(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.MarkProcessed(ctx, first.ID, base.Add(time.Minute)))
	assert.ErrorIs(t, s.MarkProcessed(ctx, first.ID, base), sentinel.ErrNotFound)
	assert.ErrorIs(t, s.MarkProcessed(ctx, uuid.New(), base), sentinel.ErrNotFound)

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := s.DeleteProcessedBefore(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
