package evidence

import (
	"context"

	"custodia/internal/custody"
	id "custodia/pkg/domain"
)

// SearchQuery selects catalog items for the admin projection.
type SearchQuery struct {
	// Term matches code, description, or category. Empty matches everything.
	Term     string
	Page     int
	PageSize int
}

// Store persists the evidence catalog.
//
// CreateWithCustody is the atomicity point of logging: it assigns the next
// per-year code, inserts the catalog record, and writes the initial custody
// state in one transaction. On any failure nothing is visible afterwards.
// The assigned code is written back into item.Code.
type Store interface {
	CreateWithCustody(ctx context.Context, item *Item, state custody.State) error
	FindByID(ctx context.Context, evidenceID id.EvidenceID) (*Item, error)
	// ListByCase returns a case's items newest-first.
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*Item, error)
	// Search returns a page of items newest-first plus the total match count.
	Search(ctx context.Context, q SearchQuery) ([]*Item, int, error)
}
