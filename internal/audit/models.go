// Package audit records who did what, when, from where. Audit writes are
// best-effort: a failing audit store must never fail the operation being
// audited.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "custodia/pkg/domain"
)

const (
	ActionEvidenceLogged     = "evidence.logged"
	ActionCustodyTransferred = "custody.transferred"
	ActionAccountCreated     = "account.created"
)

const (
	TargetEvidence = "evidence"
	TargetTransfer = "transfer"
	TargetAccount  = "account"
)

// Entry is one audit trail record. Detail carries action-specific fields as
// raw JSON so the trail can hold any shape without schema churn.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    id.UserID       `json:"actor_id"`
	ActorName  string          `json:"actor_name"`
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Detail     json.RawMessage `json:"detail"`
	SourceIP   string          `json:"source_ip,omitempty"`
	Device     string          `json:"device,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
