// Package cases is the read-only case registry dependency of the custody
// core. Case lifecycle management happens elsewhere; the core only confirms
// existence and fetches display numbers.
package cases

import (
	"context"
	"errors"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

type Case struct {
	ID        id.CaseID `json:"id"`
	Number    string    `json:"number"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads case records. Create exists for seeding and tests.
type Store interface {
	Create(ctx context.Context, c *Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*Case, error)
}

// Registry is the lookup surface the custody core consumes.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Get returns the case or a NotFound domain error.
func (r *Registry) Get(ctx context.Context, caseID id.CaseID) (*Case, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	c, err := r.store.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	return c, nil
}
