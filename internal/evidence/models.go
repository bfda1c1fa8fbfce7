// Package evidence owns the evidence catalog: immutable descriptive records
// of seized items, each carrying a unique human-facing code and a reference
// to its proof-of-seizure attachment.
package evidence

import (
	"fmt"
	"strings"
	"time"

	"custodia/internal/attachment"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Item is one cataloged evidence record. Items are written once at logging
// time and never updated; custody changes live in the transfer ledger, not
// here.
type Item struct {
	ID            id.EvidenceID  `json:"id"`
	CaseID        id.CaseID      `json:"case_id"`
	Code          string         `json:"code"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Station       string         `json:"station"`
	LoggedBy      id.UserID      `json:"logged_by"`
	AttachmentRef attachment.Ref `json:"attachment_ref"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewItem validates and builds a catalog record. The code is assigned later,
// inside the store's create transaction, so it is absent here.
func NewItem(
	itemID id.EvidenceID,
	caseID id.CaseID,
	description, category, station string,
	loggedBy id.UserID,
	ref attachment.Ref,
	now time.Time,
) (*Item, error) {
	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)
	station = strings.TrimSpace(station)
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence description cannot be empty")
	}
	if category == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence category cannot be empty")
	}
	if station == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence storage location cannot be empty")
	}
	if loggedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence must record the logging officer")
	}
	if ref == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence requires a proof-of-seizure attachment")
	}
	return &Item{
		ID:            itemID,
		CaseID:        caseID,
		Description:   description,
		Category:      category,
		Station:       station,
		LoggedBy:      loggedBy,
		AttachmentRef: ref,
		CreatedAt:     now,
	}, nil
}

// FormatCode renders the per-year sequential code, e.g. "EVD-2026-000042".
func FormatCode(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// LogRequest is the caller's side of logging a new item into the catalog.
type LogRequest struct {
	CaseID      id.CaseID
	Description string
	Category    string
	// Location is where the item is initially stored; it becomes both the
	// item's station of record and the first custody location.
	Location string
	// Attachment fields describe the uploaded proof of seizure.
	AttachmentName string
	ContentType    string
}

func (r *LogRequest) Validate() error {
	if r.CaseID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return dErrors.New(dErrors.CodeValidation, "storage location is required")
	}
	if strings.TrimSpace(r.AttachmentName) == "" {
		return dErrors.New(dErrors.CodeValidation, "proof-of-seizure attachment is required")
	}
	return nil
}
