// Package circuit provides a small circuit breaker for calls to remote collaborators.
package circuit

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-off elapses.
	StateOpen
	// StateHalfOpen lets a single probe through; its outcome decides the next state.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker trips after FailureThreshold consecutive failures and stays open for
// the cool-off period. After that a single probe decides whether to close again.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failures         int
	failureThreshold int
	coolOff          time.Duration
	openedAt         time.Time
	probing          bool
	now              func() time.Time
	onChange         func(name string, from, to State)
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the consecutive failures needed to open. Default 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithCoolOff sets how long the breaker stays open before probing. Default 10s.
func WithCoolOff(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.coolOff = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// WithStateChange registers a callback invoked (outside the lock) on every transition.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		coolOff:          10 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, moving open to half-open once the cool-off has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.coolOff {
		return StateHalfOpen
	}
	return b.state
}

// Allow reports whether a call may proceed. In half-open only one probe is admitted
// until its result is recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	from := b.state
	allowed := true
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.coolOff {
			allowed = false
			break
		}
		b.state = StateHalfOpen
		b.probing = true
	case StateHalfOpen:
		if b.probing {
			allowed = false
		} else {
			b.probing = true
		}
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return allowed
}

// RecordSuccess closes the breaker and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state
	b.state = StateClosed
	b.failures = 0
	b.probing = false
	b.mu.Unlock()
	b.notify(from, StateClosed)
}

// RecordFailure counts a failure. A failed probe reopens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	from := b.state
	b.failures++
	b.probing = false
	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
