//go:build integration

// Package containers starts the Postgres, Redis and Redpanda fixtures for
// integration tests. Each is started on first use and shared by every suite
// in the test binary; Ryuk removes them when the process exits.
package containers

import (
	"sync"
	"testing"
)

// lazy starts a fixture once. A failed start is not cached, so the next
// suite retries and reports its own failure.
type lazy[T any] struct {
	mu    sync.Mutex
	value *T
}

func (l *lazy[T]) get(t *testing.T, start func(*testing.T) *T) *T {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.value == nil {
		l.value = start(t)
	}
	return l.value
}

type Manager struct {
	postgres lazy[PostgresContainer]
	redis    lazy[RedisContainer]
	kafka    lazy[KafkaContainer]
}

var manager = &Manager{}

func GetManager() *Manager {
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, NewPostgresContainer)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, NewRedisContainer)
}

func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, NewKafkaContainer)
}
