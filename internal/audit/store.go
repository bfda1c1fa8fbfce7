package audit

import "context"

// Store persists audit entries. Append-only.
type Store interface {
	Create(ctx context.Context, entry *Entry) error
	// List returns the newest entries up to limit, most recent first.
	List(ctx context.Context, limit int) ([]*Entry, error)
}
