package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryStore) ListByReference(_ context.Context, referenceID uuid.UUID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	for _, entry := range s.entries {
		if entry.ReferenceID == referenceID {
			cp := *entry
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AttemptedAt.After(out[j].AttemptedAt)
	})
	return out, nil
}
