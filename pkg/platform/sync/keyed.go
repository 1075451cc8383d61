// Package sync provides per-key locking for in-process critical sections.
package sync

import (
	"hash/maphash"
	"sync"
)

const shardCount = 64

// KeyedMutex serialises work on the same key while unrelated keys mostly
// proceed in parallel. Keys share a lock when they hash to the same shard.
type KeyedMutex struct {
	seed   maphash.Seed
	shards [shardCount]sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{seed: maphash.MakeSeed()}
}

func (m *KeyedMutex) Lock(key string) {
	m.shards[m.shard(key)].Lock()
}

func (m *KeyedMutex) Unlock(key string) {
	m.shards[m.shard(key)].Unlock()
}

// With runs fn while holding the lock for key.
func (m *KeyedMutex) With(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

func (m *KeyedMutex) shard(key string) uint64 {
	return maphash.String(m.seed, key) % shardCount
}
