// Package domain defines the typed identifiers shared across custodia.
//
// Each ID wraps a uuid so that a CaseID can never be passed where an
// EvidenceID is expected. Stores convert to uuid.UUID at the driver boundary.
package domain

import "github.com/google/uuid"

// UserID identifies an officer or administrator account.
type UserID uuid.UUID

func NewUserID() UserID           { return UserID(uuid.New()) }
func (id UserID) String() string  { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

// ParseUserID parses the canonical string form of a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// CaseID identifies a case record in the case registry.
type CaseID uuid.UUID

func NewCaseID() CaseID           { return CaseID(uuid.New()) }
func (id CaseID) String() string  { return uuid.UUID(id).String() }
func (id CaseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id CaseID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CaseID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = CaseID(u)
	return nil
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CaseID{}, err
	}
	return CaseID(u), nil
}

// EvidenceID identifies a seized evidence item.
type EvidenceID uuid.UUID

func NewEvidenceID() EvidenceID       { return EvidenceID(uuid.New()) }
func (id EvidenceID) String() string  { return uuid.UUID(id).String() }
func (id EvidenceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id EvidenceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EvidenceID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = EvidenceID(u)
	return nil
}

func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EvidenceID{}, err
	}
	return EvidenceID(u), nil
}

// TransferID identifies one committed custody transfer ledger entry.
type TransferID uuid.UUID

func NewTransferID() TransferID       { return TransferID(uuid.New()) }
func (id TransferID) String() string  { return uuid.UUID(id).String() }
func (id TransferID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id TransferID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TransferID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TransferID(u)
	return nil
}

func ParseTransferID(s string) (TransferID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TransferID{}, err
	}
	return TransferID(u), nil
}
