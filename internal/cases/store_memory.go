package cases

import (
	"context"
	"sync"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*Case
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cases: make(map[id.CaseID]*Case)}
}

func (s *InMemoryStore) Create(_ context.Context, c *Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, caseID id.CaseID) (*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
