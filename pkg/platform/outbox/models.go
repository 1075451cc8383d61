// Package outbox implements the transactional outbox: events are written in the
// same transaction as the state change and published to Kafka by a worker.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one pending or published event.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "account"
	AggregateID   string
	EventType     string // "account.created"
	Payload       []byte // JSON
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil until published
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
