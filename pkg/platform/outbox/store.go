package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the outbox persistence used by the worker. Implementations must be
// safe for concurrent use.
type Store interface {
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error

	CountPending(ctx context.Context) (int64, error)

	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
