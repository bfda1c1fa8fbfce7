package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfAndMessageOf(t *testing.T) {
	err := New(CodeNoOpTransfer, "no change")
	assert.Equal(t, CodeNoOpTransfer, CodeOf(err))
	assert.Equal(t, "no change", MessageOf(err))

	plain := errors.New("boom")
	assert.Equal(t, CodeInternal, CodeOf(plain))
	assert.Equal(t, "internal error", MessageOf(plain))
}

func TestIsWalksTheChain(t *testing.T) {
	inner := New(CodeConflict, "duplicate")
	outer := Wrap(inner, CodeStorage, "commit failed")

	assert.True(t, Is(outer, CodeStorage))
	assert.True(t, Is(outer, CodeConflict))
	assert.False(t, Is(outer, CodeNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeStorage, "commit failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeInvariantViolation: http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeNoOpTransfer:       http.StatusConflict,
		CodeConflict:           http.StatusConflict,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeStorage:            http.StatusInternalServerError,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
