package identity

import (
	"strings"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

type Role string

const (
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountBlocked AccountStatus = "blocked"
)

// Account is the identity the custody core trusts as holder, initiator, or
// logging officer. Credential workflows (registration, login, password
// reset) live outside this service; accounts arrive here already vetted.
type Account struct {
	ID          id.UserID     `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	Role        Role          `json:"role"`
	Station     string        `json:"station"`
	Status      AccountStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (a *Account) IsActive() bool { return a.Status == AccountActive }

// NewAccount validates and builds an account.
func NewAccount(accountID id.UserID, email, displayName string, role Role, station string, now time.Time) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account email cannot be empty")
	}
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account display name cannot be empty")
	}
	if role != RoleOfficer && role != RoleAdmin {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account role must be officer or admin")
	}
	return &Account{
		ID:          accountID,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		Station:     station,
		Status:      AccountActive,
		CreatedAt:   now,
	}, nil
}
