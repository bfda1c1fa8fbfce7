package evidence

import (
	"context"
	"sort"
	"strings"
	"sync"

	"custodia/internal/custody"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps the catalog in maps and emulates the create
// transaction by undoing its own writes when the custody insert fails.
type InMemoryStore struct {
	mu       sync.RWMutex
	items    map[id.EvidenceID]*Item
	counters map[int]int64

	states     *custody.InMemoryStore
	codePrefix string
}

func NewInMemoryStore(states *custody.InMemoryStore, codePrefix string) *InMemoryStore {
	return &InMemoryStore{
		items:      make(map[id.EvidenceID]*Item),
		counters:   make(map[int]int64),
		states:     states,
		codePrefix: codePrefix,
	}
}

func (s *InMemoryStore) CreateWithCustody(ctx context.Context, item *Item, state custody.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := item.CreatedAt.UTC().Year()
	seq := s.counters[year] + 1
	code := FormatCode(s.codePrefix, year, seq)

	if err := s.states.CreateState(ctx, state); err != nil {
		return err
	}

	s.counters[year] = seq
	item.Code = code
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, evidenceID id.EvidenceID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *InMemoryStore) ListByCase(_ context.Context, caseID id.CaseID) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Item
	for _, item := range s.items {
		if item.CaseID == caseID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sortItemsNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) Search(_ context.Context, q SearchQuery) ([]*Item, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term := strings.ToLower(strings.TrimSpace(q.Term))
	var matched []*Item
	for _, item := range s.items {
		if term == "" || strings.Contains(strings.ToLower(item.Code), term) ||
			strings.Contains(strings.ToLower(item.Description), term) ||
			strings.Contains(strings.ToLower(item.Category), term) {
			cp := *item
			matched = append(matched, &cp)
		}
	}
	sortItemsNewestFirst(matched)
	total := len(matched)
	start, end := pageBounds(total, q.Page, q.PageSize)
	return matched[start:end], total, nil
}

func sortItemsNewestFirst(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
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
