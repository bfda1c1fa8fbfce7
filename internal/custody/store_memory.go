package custody

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemoryStore serializes transfers per evidence item with a per-item
// mutex, mirroring the row lock the Postgres store takes. Used for unit
// tests and development mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	states  map[id.EvidenceID]State
	entries []*TransferLedgerEntry

	locksMu sync.Mutex
	locks   map[id.EvidenceID]*sync.Mutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		states: make(map[id.EvidenceID]State),
		locks:  make(map[id.EvidenceID]*sync.Mutex),
	}
}

func (s *InMemoryStore) itemLock(evidenceID id.EvidenceID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[evidenceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[evidenceID] = lock
	}
	return lock
}

func (s *InMemoryStore) CreateState(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[state.EvidenceID]; exists {
		return sentinel.ErrConflict
	}
	s.states[state.EvidenceID] = state
	return nil
}

func (s *InMemoryStore) Current(_ context.Context, evidenceID id.EvidenceID) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[evidenceID]
	if !ok {
		return State{}, sentinel.ErrNotFound
	}
	return state, nil
}

func (s *InMemoryStore) ExecuteTransfer(ctx context.Context, evidenceID id.EvidenceID, decide DecideFunc) (*TransferLedgerEntry, error) {
	// The per-item lock is the analogue of SELECT ... FOR UPDATE: racing
	// transfers for the same item queue here, and each decide call sees the
	// previous winner's committed state.
	lock := s.itemLock(evidenceID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	current, ok := s.states[evidenceID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	entry, err := decide(current)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	s.states[evidenceID] = State{
		EvidenceID: evidenceID,
		HolderID:   entry.ToHolder,
		Location:   entry.ToLocation,
		UpdatedAt:  entry.CreatedAt,
	}
	return entry, nil
}

func (s *InMemoryStore) History(_ context.Context, evidenceID id.EvidenceID) ([]*TransferLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*TransferLedgerEntry
	for _, entry := range s.entries {
		if entry.EvidenceID == evidenceID {
			cp := *entry
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) SearchTransfers(_ context.Context, q SearchQuery) ([]*TransferLedgerEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term := strings.ToLower(strings.TrimSpace(q.Term))
	var matched []*TransferLedgerEntry
	for _, entry := range s.entries {
		if term == "" || strings.Contains(strings.ToLower(entry.Reason), term) ||
			strings.Contains(strings.ToLower(entry.ToLocation), term) ||
			strings.Contains(strings.ToLower(entry.FromLocation), term) {
			cp := *entry
			matched = append(matched, &cp)
		}
	}
	sortNewestFirst(matched)
	total := len(matched)
	start, end := pageBounds(total, q.Page, q.PageSize)
	return matched[start:end], total, nil
}

func sortNewestFirst(entries []*TransferLedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func pageBounds(total, page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
