//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/kafka"
	"cashwallet/internal/platform/kafka/producer"
	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/outbox/store/postgres"
	"cashwallet/pkg/platform/outbox/worker"
	"cashwallet/pkg/platform/sentinel"
	"cashwallet/pkg/testutil/containers"
)

type OutboxPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	ctx      context.Context
}

func TestOutboxPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxPostgresSuite))
}

func (s *OutboxPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *OutboxPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *OutboxPostgresSuite) entry(aggregateID string, createdAt time.Time) *outbox.Entry {
	return outbox.NewEntry("account", aggregateID, "account.created",
		[]byte(`{"account_id":"`+aggregateID+`"}`), createdAt.UTC().Truncate(time.Microsecond))
}

func (s *OutboxPostgresSuite) TestFetchInCreationOrderAndMark() {
	base := time.Now().Add(-time.Minute)
	second := s.entry("acc-2", base.Add(time.Second))
	first := s.entry("acc-1", base)
	s.Require().NoError(s.store.Append(s.ctx, second))
	s.Require().NoError(s.store.Append(s.ctx, first))

	pending, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), pending)

	entries, err := s.store.FetchUnprocessed(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("acc-1", entries[0].AggregateID)
	s.JSONEq(`{"account_id":"acc-1"}`, string(entries[0].Payload))

	s.Require().NoError(s.store.MarkProcessed(s.ctx, first.ID, time.Now()))
	s.ErrorIs(s.store.MarkProcessed(s.ctx, first.ID, time.Now()), sentinel.ErrNotFound)
	s.ErrorIs(s.store.MarkProcessed(s.ctx, uuid.New(), time.Now()), sentinel.ErrNotFound)

	pending, err = s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), pending)
}

func (s *OutboxPostgresSuite) TestAppendTxRollsBackWithCaller() {
	tx, err := s.postgres.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.AppendTx(s.ctx, tx, s.entry("acc-1", time.Now())))
	s.Require().NoError(tx.Rollback())

	pending, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Zero(pending)
}

func (s *OutboxPostgresSuite) TestDeleteProcessedBefore() {
	old := s.entry("acc-1", time.Now())
	fresh := s.entry("acc-2", time.Now())
	s.Require().NoError(s.store.Append(s.ctx, old))
	s.Require().NoError(s.store.Append(s.ctx, fresh))
	s.Require().NoError(s.store.MarkProcessed(s.ctx, old.ID, time.Now().Add(-48*time.Hour)))
	s.Require().NoError(s.store.MarkProcessed(s.ctx, fresh.ID, time.Now()))

	n, err := s.store.DeleteProcessedBefore(s.ctx, time.Now().Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *OutboxPostgresSuite) TestWorkerPublishesToKafka() {
	broker := containers.GetManager().GetKafka(s.T())
	cfg := config.Kafka{
		Brokers:         broker.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
		Partitions:      1,
		Replication:     1,
	}
	topic := "test-outbox-account-events"
	s.Require().NoError(kafka.EnsureTopics(s.ctx, cfg, topic))

	prod, err := producer.New(cfg, nil)
	s.Require().NoError(err)
	defer func() { _ = prod.Close() }()

	entry := s.entry("acc-outbox", time.Now())
	s.Require().NoError(s.store.Append(s.ctx, entry))

	w := worker.New(s.store, prod, worker.WithTopic(topic))
	s.Equal(1, w.Poll(s.ctx))

	client, err := broker.NewConsumer("outbox-test", topic)
	s.Require().NoError(err)
	defer client.Close()

	record := broker.WaitForRecord(s.ctx, client, 15*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "acc-outbox"
	})
	s.Require().NotNil(record)
	s.JSONEq(`{"account_id":"acc-outbox"}`, string(record.Value))

	pending, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Zero(pending)
}
