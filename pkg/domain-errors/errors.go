// Package domainerrors carries error codes from services to transports.
//
// Services return these so handlers can translate failures into precise HTTP
// responses without string matching. Stores return pkg/platform/sentinel
// errors instead; services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks missing or malformed caller input. It never has
	// storage side effects.
	CodeValidation Code = "validation"
	// CodeBadRequest marks a request that could not be interpreted at all.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a case, evidence item, or account that does not exist.
	CodeNotFound Code = "not_found"
	// CodeNoOpTransfer marks a transfer whose destination equals the current
	// custody state. Rejected to protect ledger signal quality.
	CodeNoOpTransfer Code = "no_op_transfer"
	// CodeConflict marks a unique-constraint violation under race.
	CodeConflict Code = "conflict"
	// CodeStorage marks a transaction or commit failure; the caller must
	// assume no state changed.
	CodeStorage Code = "storage"
	// CodeInvariantViolation marks a model constructed in an illegal state.
	CodeInvariantViolation Code = "invariant_violation"

	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error pairs a code with a message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// HasCode is an alias for Is, kept for call-site readability in services.
func HasCode(err error, code Code) bool { return Is(err, code) }

// CodeOf returns the outermost code on err, or CodeInternal if none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost message on err, or a generic fallback.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code onto its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNoOpTransfer, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
