package identity

import (
	"context"
	"errors"
	"strings"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

// Service resolves accounts for the custody core.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the account for userID.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*Account, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	account, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// ResolveHolder resolves a destination holder from an id and contact email
// pair. Both must identify the same active account: a mismatched pair is a
// caller error, not a lookup miss, and is reported as such.
func (s *Service) ResolveHolder(ctx context.Context, userID id.UserID, email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if userID.IsNil() && email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "destination holder id or email is required")
	}

	var (
		account *Account
		err     error
	)
	switch {
	case !userID.IsNil():
		account, err = s.store.FindByID(ctx, userID)
	default:
		account, err = s.store.FindByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "destination holder not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve destination holder")
	}

	if email != "" && account.Email != email {
		return nil, dErrors.New(dErrors.CodeValidation, "destination holder id and email do not match")
	}
	if !account.IsActive() {
		return nil, dErrors.New(dErrors.CodeForbidden, "destination holder account is blocked")
	}
	return account, nil
}

// DisplayNames resolves display names for a set of user IDs. Unknown IDs map
// to an empty string rather than failing the read.
func (s *Service) DisplayNames(ctx context.Context, ids []id.UserID) map[id.UserID]string {
	names := make(map[id.UserID]string, len(ids))
	for _, userID := range ids {
		if _, done := names[userID]; done || userID.IsNil() {
			continue
		}
		account, err := s.store.FindByID(ctx, userID)
		if err != nil {
			names[userID] = ""
			continue
		}
		names[userID] = account.DisplayName
	}
	return names
}
