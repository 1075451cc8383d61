//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/kafka"
	"cashwallet/internal/platform/kafka/producer"
	"cashwallet/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	cfg      config.Kafka
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	s.cfg = config.Kafka{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
		Partitions:      1,
		Replication:     1,
	}
	prod, err := producer.New(s.cfg, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) TestProduceDeliversRecordWithHeaders() {
	ctx := context.Background()
	topic := "test-account-events"
	s.Require().NoError(kafka.EnsureTopics(ctx, s.cfg, topic))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("account-1"),
		Value:   []byte(`{"account_id":"account-1"}`),
		Headers: map[string]string{"event_type": "account.created"},
	})
	s.Require().NoError(err)

	client, err := s.kafka.NewConsumer("producer-test", topic)
	s.Require().NoError(err)
	defer client.Close()

	record := s.kafka.WaitForRecord(ctx, client, 10*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "account-1"
	})
	s.Require().NotNil(record)
	s.Equal(`{"account_id":"account-1"}`, string(record.Value))
	s.Require().Len(record.Headers, 1)
	s.Equal("account.created", string(record.Headers[0].Value))
}

func (s *ProducerIntegrationSuite) TestEnsureTopicsIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(kafka.EnsureTopics(ctx, s.cfg, "test-idempotent-topic"))
	s.Require().NoError(kafka.EnsureTopics(ctx, s.cfg, "test-idempotent-topic"))
}

func (s *ProducerIntegrationSuite) TestHealthy() {
	s.True(s.producer.Healthy(context.Background()))
}
