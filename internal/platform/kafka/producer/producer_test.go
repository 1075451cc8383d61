package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"cashwallet/internal/platform/config"
)

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(""))
}

func TestToRecordCopiesHeaders(t *testing.T) {
	rec := toRecord(&Message{
		Topic:   "cashwallet.account.events",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: map[string]string{"event_type": "account.created"},
	})
	assert.Equal(t, "cashwallet.account.events", rec.Topic)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, kgo.RecordHeader{Key: "event_type", Value: []byte("account.created")}, rec.Headers[0])
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(config.Kafka{}, nil)
	assert.Error(t, err)
}

func TestNoopProducer(t *testing.T) {
	p := NewNoopProducer(nil)
	assert.NoError(t, p.Produce(context.Background(), &Message{Topic: "t"}))
	assert.True(t, p.Healthy(context.Background()))
	assert.Zero(t, p.Len())
	assert.NoError(t, p.Close())
}
