// Package notify delivers event notifications and keeps the notification
// ledger: every attempt is recorded with its outcome, whether or not the
// message reached the recipient.
package notify

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventEvidenceLogged     EventType = "evidence_logged"
	EventCustodyTransferred EventType = "custody_transferred"
)

type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Entry is one row of the notification ledger. ReferenceID points at the
// evidence item or transfer entry the notification was about.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	EventType   EventType `json:"event_type"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	ReferenceID uuid.UUID `json:"reference_id"`
	Status      Status    `json:"status"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Notification is the outbound side of an attempt: what to send and which
// record it is about. The recorder turns it into a ledger Entry.
type Notification struct {
	EventType   EventType
	Recipient   string
	Subject     string
	Body        string
	ReferenceID uuid.UUID
}
