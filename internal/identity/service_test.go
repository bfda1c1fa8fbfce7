package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

func seedAccount(t *testing.T, store Store, email string) *Account {
	t.Helper()
	account, err := NewAccount(id.NewUserID(), email, "Officer "+email, RoleOfficer, "Central", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), account))
	return account
}

func TestResolveHolderByID(t *testing.T) {
	store := NewInMemoryStore()
	account := seedAccount(t, store, "one@central.example")
	svc := NewService(store)

	resolved, err := svc.ResolveHolder(context.Background(), account.ID, "")
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestResolveHolderByEmail(t *testing.T) {
	store := NewInMemoryStore()
	account := seedAccount(t, store, "one@central.example")
	svc := NewService(store)

	resolved, err := svc.ResolveHolder(context.Background(), id.UserID{}, "One@Central.Example")
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestResolveHolderMismatchedPair(t *testing.T) {
	store := NewInMemoryStore()
	account := seedAccount(t, store, "one@central.example")
	seedAccount(t, store, "two@central.example")
	svc := NewService(store)

	_, err := svc.ResolveHolder(context.Background(), account.ID, "two@central.example")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestResolveHolderUnknown(t *testing.T) {
	svc := NewService(NewInMemoryStore())

	_, err := svc.ResolveHolder(context.Background(), id.NewUserID(), "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestResolveHolderBlockedAccount(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store)

	blocked, err := NewAccount(id.NewUserID(), "blocked@central.example", "Blocked", RoleOfficer, "Central", time.Now().UTC())
	require.NoError(t, err)
	blocked.Status = AccountBlocked
	require.NoError(t, store.Create(context.Background(), blocked))

	_, err = svc.ResolveHolder(context.Background(), blocked.ID, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestResolveHolderRequiresIDOrEmail(t *testing.T) {
	svc := NewService(NewInMemoryStore())

	_, err := svc.ResolveHolder(context.Background(), id.UserID{}, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDisplayNamesToleratesUnknownIDs(t *testing.T) {
	store := NewInMemoryStore()
	account := seedAccount(t, store, "one@central.example")
	svc := NewService(store)

	unknown := id.NewUserID()
	names := svc.DisplayNames(context.Background(), []id.UserID{account.ID, unknown, account.ID})
	assert.Equal(t, account.DisplayName, names[account.ID])
	assert.Empty(t, names[unknown])
}
