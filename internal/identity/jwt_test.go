package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custodia/pkg/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia-test")
	account, err := NewAccount(id.NewUserID(), "officer@central.example", "Officer One", RoleOfficer, "Central", time.Now().UTC())
	require.NoError(t, err)

	token, err := svc.GenerateToken(account, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.UserID)
	assert.Equal(t, "officer", claims.Role)
	assert.Equal(t, account.DisplayName, claims.DisplayName)
	assert.Equal(t, account.Email, claims.Email)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia-test")
	account, err := NewAccount(id.NewUserID(), "officer@central.example", "Officer One", RoleOfficer, "Central", time.Now().UTC())
	require.NoError(t, err)

	token, err := svc.GenerateToken(account, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	issuer := NewJWTService("key-one", "custodia-test")
	verifier := NewJWTService("key-two", "custodia-test")
	account, err := NewAccount(id.NewUserID(), "officer@central.example", "Officer One", RoleOfficer, "Central", time.Now().UTC())
	require.NoError(t, err)

	token, err := issuer.GenerateToken(account, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia-test")
	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
