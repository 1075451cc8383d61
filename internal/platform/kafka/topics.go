// Package kafka holds broker-level helpers shared by the producer and consumer.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/kafka/producer"
)

// EnsureTopics creates the configured topics when they do not exist yet.
func EnsureTopics(ctx context.Context, cfg config.Kafka, topics ...string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(producer.SplitBrokers(cfg.Brokers)...))
	if err != nil {
		return fmt.Errorf("create kafka admin client: %w", err)
	}
	defer client.Close()

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, cfg.Partitions, cfg.Replication, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, t := range resp.Sorted() {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}
