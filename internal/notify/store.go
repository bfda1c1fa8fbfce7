package notify

import (
	"context"

	"github.com/google/uuid"
)

// Store persists the notification ledger. Entries are append-only.
type Store interface {
	Create(ctx context.Context, entry *Entry) error
	// ListByReference returns entries for one evidence item or transfer,
	// newest attempt first.
	ListByReference(ctx context.Context, referenceID uuid.UUID) ([]*Entry, error)
}
