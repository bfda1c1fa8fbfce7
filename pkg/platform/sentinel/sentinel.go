package sentinel

import "errors"

// Sentinel errors for storage-layer facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with context.
//
// These represent factual states about persisted resources, not validation
// failures:
// - ErrNotFound: row does not exist in the store
// - ErrConflict: unique constraint violated (evidence code, email)
// - ErrInvalidState: row exists but is in the wrong state for the operation
// - ErrUnavailable: backing store temporarily unreachable
//
// For caller-input validation use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
