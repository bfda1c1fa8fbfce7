package custody

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

func seedState(t *testing.T, store *InMemoryStore, holder id.UserID, location string) State {
	t.Helper()
	state := State{
		EvidenceID: id.NewEvidenceID(),
		HolderID:   holder,
		Location:   location,
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.CreateState(context.Background(), state))
	return state
}

func entryFor(state State, toHolder id.UserID, toLocation string, at time.Time) *TransferLedgerEntry {
	entry, err := NewTransferLedgerEntry(
		id.NewTransferID(), state.EvidenceID, id.NewCaseID(), toHolder,
		state, toHolder, toLocation, "reassignment", at, at,
	)
	if err != nil {
		panic(err)
	}
	return entry
}

func TestInMemoryStoreCreateStateConflict(t *testing.T) {
	store := NewInMemoryStore()
	state := seedState(t, store, id.NewUserID(), "Locker A")

	err := store.CreateState(context.Background(), state)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryStoreCurrentNotFound(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Current(context.Background(), id.NewEvidenceID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreExecuteTransferCommitsEntryAndState(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	state := seedState(t, store, id.NewUserID(), "Locker A")
	dest := id.NewUserID()

	entry, err := store.ExecuteTransfer(ctx, state.EvidenceID, func(current State) (*TransferLedgerEntry, error) {
		assert.Equal(t, state.HolderID, current.HolderID)
		return entryFor(current, dest, "Locker B", time.Now().UTC()), nil
	})
	require.NoError(t, err)

	current, err := store.Current(ctx, state.EvidenceID)
	require.NoError(t, err)
	assert.Equal(t, dest, current.HolderID)
	assert.Equal(t, "Locker B", current.Location)

	history, err := store.History(ctx, state.EvidenceID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)
}

func TestInMemoryStoreExecuteTransferDecideErrorLeavesNothingBehind(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	state := seedState(t, store, id.NewUserID(), "Locker A")

	_, err := store.ExecuteTransfer(ctx, state.EvidenceID, func(State) (*TransferLedgerEntry, error) {
		return nil, dErrors.New(dErrors.CodeNoOpTransfer, "no change")
	})
	require.Error(t, err)

	current, err := store.Current(ctx, state.EvidenceID)
	require.NoError(t, err)
	assert.Equal(t, state.HolderID, current.HolderID)
	assert.Equal(t, state.Location, current.Location)

	history, err := store.History(ctx, state.EvidenceID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInMemoryStoreExecuteTransferUnknownItem(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.ExecuteTransfer(context.Background(), id.NewEvidenceID(), func(State) (*TransferLedgerEntry, error) {
		t.Fatal("decide must not run for an unknown item")
		return nil, nil
	})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// Racing transfers on one item serialize: each decide call must observe the
// state committed by the previous winner, so a chain of N transfers yields
// exactly N ledger entries and a final state equal to the last commit.
func TestInMemoryStoreExecuteTransferSerializesPerItem(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	state := seedState(t, store, id.NewUserID(), "Locker A")

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ExecuteTransfer(ctx, state.EvidenceID, func(current State) (*TransferLedgerEntry, error) {
				return entryFor(current, id.NewUserID(), "Locker B", time.Now().UTC()), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := store.History(ctx, state.EvidenceID)
	require.NoError(t, err)
	assert.Len(t, history, workers)

	// Every entry's FromHolder must equal some predecessor's ToHolder,
	// forming an unbroken chain from the seeded state.
	seen := map[id.UserID]bool{state.HolderID: true}
	for i := len(history) - 1; i >= 0; i-- {
		assert.True(t, seen[history[i].FromHolder], "entry must chain from a committed state")
		seen[history[i].ToHolder] = true
	}
}

func TestInMemoryStoreHistoryNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	state := seedState(t, store, id.NewUserID(), "Locker A")

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		_, err := store.ExecuteTransfer(ctx, state.EvidenceID, func(current State) (*TransferLedgerEntry, error) {
			return entryFor(current, id.NewUserID(), "Locker B", at), nil
		})
		require.NoError(t, err)
	}

	history, err := store.History(ctx, state.EvidenceID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.After(history[i-1].CreatedAt))
	}
}

func TestInMemoryStoreSearchTransfersPaging(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	state := seedState(t, store, id.NewUserID(), "Locker A")

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		_, err := store.ExecuteTransfer(ctx, state.EvidenceID, func(current State) (*TransferLedgerEntry, error) {
			return entryFor(current, id.NewUserID(), "Locker B", at), nil
		})
		require.NoError(t, err)
	}

	page, total, err := store.SearchTransfers(ctx, SearchQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	page, total, err = store.SearchTransfers(ctx, SearchQuery{Term: "locker b", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 5)

	page, total, err = store.SearchTransfers(ctx, SearchQuery{Term: "vault", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}
