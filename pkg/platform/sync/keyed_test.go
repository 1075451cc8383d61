package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.With("jane@example.com", func() {
				v := counter
				counter = v + 1
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutexIsStablePerKey(t *testing.T) {
	m := NewKeyedMutex()
	assert.Equal(t, m.shard("a@example.com"), m.shard("a@example.com"))
	assert.Less(t, m.shard(""), uint64(shardCount))

	m.Lock("")
	m.Unlock("")
}
