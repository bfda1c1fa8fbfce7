package identity

import (
	"context"

	id "custodia/pkg/domain"
)

// Store persists accounts. Implementations return sentinel.ErrNotFound for
// missing accounts and sentinel.ErrConflict for duplicate emails.
type Store interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, userID id.UserID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
}
