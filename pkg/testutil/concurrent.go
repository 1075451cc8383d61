// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"
	"sync/atomic"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Errors    []error
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int {
	return int(r.Successes) + len(r.Errors)
}

// Count returns how many collected errors match.
func (r *ConcurrentResult) Count(match func(error) bool) int {
	n := 0
	for _, err := range r.Errors {
		if match(err) {
			n++
		}
	}
	return n
}

// RunConcurrent executes fn in parallel goroutines, released together, and
// collects every outcome.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes atomic.Int32
		errs      []error
	)
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			if err := fn(idx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			successes.Add(1)
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{Successes: successes.Load(), Errors: errs}
}
