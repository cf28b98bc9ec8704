package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(string(hash), "test-secret", time.Hour, logging.NewTestLogger())
}

func TestLoginIssuesValidToken(t *testing.T) {
	auth := newAuthFixture(t)

	token, err := auth.Login("hunter2")
	require.NoError(t, err)
	assert.True(t, auth.ValidateToken(token))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := newAuthFixture(t)

	_, err := auth.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newAuthFixture(t)

	assert.False(t, auth.ValidateToken("not-a-jwt"))
	assert.False(t, auth.ValidateToken(""))
}

func TestLoginDisabledWithoutConfig(t *testing.T) {
	auth := NewAuthService("", "", time.Hour, logging.NewTestLogger())

	assert.False(t, auth.Enabled())
	_, err := auth.Login("anything")
	assert.Error(t, err)
}

func TestLoginWithGeneratedSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	// A password hash without a configured secret still yields working admin
	// access through a generated secret.
	auth := NewAuthService(string(hash), "", time.Hour, logging.NewTestLogger())
	require.True(t, auth.Enabled())

	token, err := auth.Login("hunter2")
	require.NoError(t, err)
	assert.True(t, auth.ValidateToken(token))

	// A fresh service generates a different secret, so old tokens die.
	restarted := NewAuthService(string(hash), "", time.Hour, logging.NewTestLogger())
	assert.False(t, restarted.ValidateToken(token))
}
