// Package store keeps live sessions.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cashwallet/internal/session/models"
	"cashwallet/pkg/domain"
	"cashwallet/pkg/platform/sentinel"
)

// Error Contract:
// - FindByID and Delete return sentinel.ErrNotFound for an unknown or expired session
// - infrastructure failures are wrapped with context

// InMemorySessionStore stores sessions in memory for development and tests.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]models.Session
}

func NewInMemory() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[domain.SessionID]models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID domain.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	return &session, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, sessionID domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

// DeleteByAccount removes every session of accountID and reports how many were dropped.
func (s *InMemorySessionStore) DeleteByAccount(_ context.Context, accountID domain.AccountID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sid, session := range s.sessions {
		if session.AccountID == accountID {
			delete(s.sessions, sid)
			removed++
		}
	}
	return removed, nil
}

// DeleteExpired drops sessions past their expiry. The Redis store relies on key TTLs instead.
func (s *InMemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sid, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, sid)
			removed++
		}
	}
	return removed, nil
}
