// Package custody owns the authoritative "who holds this item now" fact and
// the append-only ledger of every change to it.
package custody

import (
	"strings"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// State is the single mutable row per evidence item: the current holder and
// location. It always reflects the most recent committed ledger entry, or
// the logging officer and station when no transfer has occurred yet.
type State struct {
	EvidenceID id.EvidenceID `json:"evidence_id"`
	HolderID   id.UserID     `json:"holder_id"`
	Location   string        `json:"location"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TransferLedgerEntry is one committed custody change. Entries are written
// once and never updated or deleted.
//
// Invariant: for an item with N committed transfers the ledger holds exactly
// N entries, and the newest entry's ToHolder/ToLocation equal the current
// State.
type TransferLedgerEntry struct {
	ID            id.TransferID `json:"id"`
	EvidenceID    id.EvidenceID `json:"evidence_id"`
	CaseID        id.CaseID     `json:"case_id"`
	InitiatedBy   id.UserID     `json:"initiated_by"`
	FromHolder    id.UserID     `json:"from_holder"`
	ToHolder      id.UserID     `json:"to_holder"`
	FromLocation  string        `json:"from_location"`
	ToLocation    string        `json:"to_location"`
	Reason        string        `json:"reason"`
	TransferredAt time.Time     `json:"transferred_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewTransferLedgerEntry validates and builds a ledger entry from the locked
// current state and the requested destination.
func NewTransferLedgerEntry(
	entryID id.TransferID,
	evidenceID id.EvidenceID,
	caseID id.CaseID,
	initiator id.UserID,
	current State,
	toHolder id.UserID,
	toLocation, reason string,
	transferredAt, now time.Time,
) (*TransferLedgerEntry, error) {
	reason = strings.TrimSpace(reason)
	toLocation = strings.TrimSpace(toLocation)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer reason cannot be empty")
	}
	if toLocation == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer destination location cannot be empty")
	}
	if toHolder.IsNil() || initiator.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer holder and initiator are required")
	}
	return &TransferLedgerEntry{
		ID:            entryID,
		EvidenceID:    evidenceID,
		CaseID:        caseID,
		InitiatedBy:   initiator,
		FromHolder:    current.HolderID,
		ToHolder:      toHolder,
		FromLocation:  current.Location,
		ToLocation:    toLocation,
		Reason:        reason,
		TransferredAt: transferredAt,
		CreatedAt:     now,
	}, nil
}

// TransferRequest is the caller's side of a transfer. The destination holder
// may be identified by id, by contact email, or both; when both are present
// they must agree.
type TransferRequest struct {
	EvidenceID    id.EvidenceID
	ToHolderID    id.UserID
	ToHolderEmail string
	ToLocation    string
	Reason        string
	// TransferDate is when custody legally changed hands; zero means the
	// request time.
	TransferDate time.Time
}

// Validate fails fast on missing input before anything touches storage.
func (r *TransferRequest) Validate() error {
	if r.EvidenceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "evidence id is required")
	}
	if r.ToHolderID.IsNil() && strings.TrimSpace(r.ToHolderEmail) == "" {
		return dErrors.New(dErrors.CodeValidation, "destination holder is required")
	}
	if strings.TrimSpace(r.ToLocation) == "" {
		return dErrors.New(dErrors.CodeValidation, "destination location is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "transfer reason is required")
	}
	return nil
}
