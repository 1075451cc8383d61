package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/database"
	"cashwallet/internal/platform/kafka"
	"cashwallet/internal/platform/kafka/producer"
	"cashwallet/internal/platform/metrics"
	"cashwallet/internal/platform/redis"
	"cashwallet/migrations"
)

// infra holds the optional backing services. A nil pool or redis client selects
// the in-memory stores; without brokers the producer is a noop.
type infra struct {
	pool     *database.Pool
	redis    *redis.Client
	producer producer.Publisher
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	in.pool = pool
	if pool != nil && cfg.Database.Migrate {
		n, err := database.Migrate(ctx, pool.DB(), migrations.FS)
		if err != nil {
			in.Close(log)
			return nil, err
		}
		log.Info("database migrations applied", "files", n)
	}

	rdb, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		in.Close(log)
		return nil, err
	}
	in.redis = rdb

	if cfg.Kafka.Brokers == "" {
		in.producer = producer.NewNoopProducer(log)
		return in, nil
	}
	if err := kafka.EnsureTopics(ctx, cfg.Kafka, cfg.Kafka.AccountTopic); err != nil {
		in.Close(log)
		return nil, fmt.Errorf("ensure kafka topics: %w", err)
	}
	prod, err := producer.New(cfg.Kafka, log)
	if err != nil {
		in.Close(log)
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	in.producer = prod
	return in, nil
}

func (in *infra) Close(log *slog.Logger) {
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			log.Warn("kafka producer close failed", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if in.pool != nil {
		if err := in.pool.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
}

// recordStats samples connection pools until ctx is done.
func (in *infra) recordStats(ctx context.Context, m *metrics.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if in.pool != nil {
				m.RecordDBStats(in.pool.Stats())
			}
			if in.redis != nil {
				m.RecordRedisStats(in.redis.PoolStats())
			}
			m.RecordKafkaBuffered(in.producer.Len())
		}
	}
}
