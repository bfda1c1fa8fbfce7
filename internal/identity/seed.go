package identity

import (
	"context"
	"time"

	id "custodia/pkg/domain"
)

// SeedDevAccounts loads a pair of development accounts into an empty store so
// the service is usable out of the box without an identity provider.
func SeedDevAccounts(ctx context.Context, store Store) ([]*Account, error) {
	now := time.Now().UTC()
	seeds := []struct {
		email   string
		name    string
		role    Role
		station string
	}{
		{"officer@central.example", "Officer A. Ndlovu", RoleOfficer, "Central"},
		{"admin@central.example", "Admin T. Moyo", RoleAdmin, "Central"},
	}

	accounts := make([]*Account, 0, len(seeds))
	for _, seed := range seeds {
		account, err := NewAccount(id.NewUserID(), seed.email, seed.name, seed.role, seed.station, now)
		if err != nil {
			return nil, err
		}
		if err := store.Create(ctx, account); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
