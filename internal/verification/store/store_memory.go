// Package store persists outstanding one-time codes and verified-email markers.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cashwallet/internal/verification/models"
	"cashwallet/pkg/platform/sentinel"
)

// Error Contract:
// - Find, Execute and Delete return sentinel.ErrNotFound for an unknown address
// - validate errors from Execute are passed through unchanged
// - infrastructure failures are wrapped with context

// InMemoryStore keeps codes in process memory for development and tests.
type InMemoryStore struct {
	mu       sync.Mutex
	codes    map[string]models.CodeRecord
	verified map[string]time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		codes:    make(map[string]models.CodeRecord),
		verified: make(map[string]time.Time),
	}
}

func (s *InMemoryStore) Save(_ context.Context, rec *models.CodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[rec.Email] = *rec
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, address string) (*models.CodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.codes[address]
	if !ok {
		return nil, fmt.Errorf("code for %s: %w", address, sentinel.ErrNotFound)
	}
	return &rec, nil
}

// Execute validates and mutates the stored record while holding the store lock.
func (s *InMemoryStore) Execute(_ context.Context, address string, validate func(*models.CodeRecord) error, mutate func(*models.CodeRecord)) (*models.CodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.codes[address]
	if !ok {
		return nil, fmt.Errorf("code for %s: %w", address, sentinel.ErrNotFound)
	}
	if err := validate(&rec); err != nil {
		return nil, err
	}
	mutate(&rec)
	s.codes[address] = rec
	return &rec, nil
}

func (s *InMemoryStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[address]; !ok {
		return fmt.Errorf("code for %s: %w", address, sentinel.ErrNotFound)
	}
	delete(s.codes, address)
	return nil
}

func (s *InMemoryStore) MarkVerified(_ context.Context, address string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[address] = until
	return nil
}

func (s *InMemoryStore) IsVerified(_ context.Context, address string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.verified[address]
	return ok && now.Before(until), nil
}

func (s *InMemoryStore) ClearVerified(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verified, address)
	return nil
}

// DeleteExpired drops expired codes and verified markers. The Redis store
// relies on key TTLs instead.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for address, rec := range s.codes {
		if rec.IsExpired(now) {
			delete(s.codes, address)
			removed++
		}
	}
	for address, until := range s.verified {
		if !now.Before(until) {
			delete(s.verified, address)
			removed++
		}
	}
	return removed, nil
}
