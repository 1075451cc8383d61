// Package store persists accounts and their wallets.
package store

import (
	"context"
	"fmt"
	"sync"

	"cashwallet/internal/account/models"
	"cashwallet/pkg/domain"
	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/sentinel"
)

// Error Contract:
// - Create returns sentinel.ErrAlreadyExists when the email is taken
// - Find* return sentinel.ErrNotFound for an unknown account
// - infrastructure failures are wrapped with context

// InMemoryStore keeps accounts in process memory. The event entry is appended
// to the outbox under the same lock as the account write.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]models.Account
	byEmail  map[string]domain.AccountID
	wallets  map[domain.AccountID][]models.Wallet
	events   outbox.Store
}

func NewInMemory(events outbox.Store) *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[domain.AccountID]models.Account),
		byEmail:  make(map[string]domain.AccountID),
		wallets:  make(map[domain.AccountID][]models.Wallet),
		events:   events,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, account *models.Account, wallets []*models.Wallet, event *outbox.Entry) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[account.Email]; taken {
		return fmt.Errorf("account %s: %w", account.Email, sentinel.ErrAlreadyExists)
	}
	if event != nil && s.events != nil {
		if err := s.events.Append(ctx, event); err != nil {
			return fmt.Errorf("append account event: %w", err)
		}
	}

	s.accounts[account.ID] = *account
	s.byEmail[account.Email] = account.ID
	copied := make([]models.Wallet, 0, len(wallets))
	for _, w := range wallets {
		copied = append(copied, *w)
	}
	s.wallets[account.ID] = copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return &a, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, address string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[address]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	a := s.accounts[accountID]
	return &a, nil
}

func (s *InMemoryStore) ListWallets(_ context.Context, accountID domain.AccountID) ([]*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.wallets[accountID]
	out := make([]*models.Wallet, 0, len(stored))
	for i := range stored {
		w := stored[i]
		out = append(out, &w)
	}
	return out, nil
}
