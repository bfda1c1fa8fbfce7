package custody

import (
	"context"

	id "custodia/pkg/domain"
)

// DecideFunc inspects the locked current state and either returns the ledger
// entry to commit or an error that aborts the transfer with no side effects.
type DecideFunc func(current State) (*TransferLedgerEntry, error)

// SearchQuery selects transfer entries for the admin projection.
type SearchQuery struct {
	// Term matches evidence code, holder name, or reason (implementation
	// defined per store). Empty matches everything.
	Term     string
	Page     int
	PageSize int
}

// Store persists custody state and the transfer ledger.
//
// ExecuteTransfer is the serialization point of the whole system: it holds
// an exclusive lock on the item's custody row from read to commit, so two
// racing transfers for the same item are decided one after the other, each
// seeing the previous commit. Implementations guarantee the ledger insert
// and the state overwrite happen together or not at all.
type Store interface {
	// CreateState inserts the initial custody row when evidence is logged.
	CreateState(ctx context.Context, state State) error
	// Current returns the custody state, sentinel.ErrNotFound if absent.
	Current(ctx context.Context, evidenceID id.EvidenceID) (State, error)
	// ExecuteTransfer runs decide under the item's exclusive lock and
	// atomically appends the returned entry while overwriting the state.
	ExecuteTransfer(ctx context.Context, evidenceID id.EvidenceID, decide DecideFunc) (*TransferLedgerEntry, error)
	// History returns the item's entries ordered newest-first.
	History(ctx context.Context, evidenceID id.EvidenceID) ([]*TransferLedgerEntry, error)
	// SearchTransfers returns a page of entries newest-first plus the total
	// match count.
	SearchTransfers(ctx context.Context, q SearchQuery) ([]*TransferLedgerEntry, int, error)
}
