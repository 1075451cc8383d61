// Package metrics holds the infrastructure collectors shared by the platform
// clients: connection pools and the Kafka producer buffer.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

type Metrics struct {
	DBOpenConns     prometheus.Gauge
	DBInUse         prometheus.Gauge
	DBWaitCount     prometheus.Gauge
	RedisTotalConns prometheus.Gauge
	RedisIdleConns  prometheus.Gauge
	RedisHits       prometheus.Counter
	RedisMisses     prometheus.Counter
	RedisTimeouts   prometheus.Counter
	KafkaBuffered   prometheus.Gauge

	lastRedis *redis.PoolStats
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DBOpenConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_db_open_connections",
			Help: "Open Postgres connections",
		}),
		DBInUse: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_db_in_use_connections",
			Help: "Postgres connections currently in use",
		}),
		DBWaitCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_db_wait_count",
			Help: "Total number of connections waited for",
		}),
		RedisTotalConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}),
		RedisIdleConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}),
		RedisHits: f.NewCounter(prometheus.CounterOpts{
			Name: "cashwallet_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}),
		RedisMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "cashwallet_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}),
		RedisTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "cashwallet_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}),
		KafkaBuffered: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_kafka_buffered_records",
			Help: "Records waiting in the producer buffer",
		}),
	}
}

func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	m.DBOpenConns.Set(float64(stats.OpenConnections))
	m.DBInUse.Set(float64(stats.InUse))
	m.DBWaitCount.Set(float64(stats.WaitCount))
}

// RecordRedisStats updates the pool gauges and adds counter deltas since the previous call.
// It is not safe for concurrent use; call it from a single stats loop.
func (m *Metrics) RecordRedisStats(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	m.RedisTotalConns.Set(float64(stats.TotalConns))
	m.RedisIdleConns.Set(float64(stats.IdleConns))

	var prev redis.PoolStats
	if m.lastRedis != nil {
		prev = *m.lastRedis
	}
	if stats.Hits > prev.Hits {
		m.RedisHits.Add(float64(stats.Hits - prev.Hits))
	}
	if stats.Misses > prev.Misses {
		m.RedisMisses.Add(float64(stats.Misses - prev.Misses))
	}
	if stats.Timeouts > prev.Timeouts {
		m.RedisTimeouts.Add(float64(stats.Timeouts - prev.Timeouts))
	}
	snapshot := *stats
	m.lastRedis = &snapshot
}

func (m *Metrics) RecordKafkaBuffered(n int) {
	m.KafkaBuffered.Set(float64(n))
}
