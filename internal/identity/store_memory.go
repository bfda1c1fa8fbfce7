package identity

import (
	"context"
	"strings"
	"sync"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemoryStore is the development and unit-test account store.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.UserID]*Account
	byEmail  map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.UserID]*Account),
		byEmail:  make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(account.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	cp := *account
	s.accounts[account.ID] = &cp
	s.byEmail[email] = account.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.accounts[userID]
	return &cp, nil
}
