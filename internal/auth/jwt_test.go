package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(
		"test-access-secret-at-least-32-chars!!",
		"test-refresh-secret-at-least-32-chars!",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	m := newTestManager()

	pair, tokenID, err := m.GenerateTokenPair("user-123", "me@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	access, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", access.UserID)
	assert.Equal(t, "me@example.com", access.Email)
	assert.Equal(t, "taskpilot", access.Issuer)

	refresh, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", refresh.UserID)
	assert.Equal(t, tokenID, refresh.TokenID)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	pair, _, err := m.GenerateTokenPair("user-123", "me@example.com")
	require.NoError(t, err)

	other := NewJWTManager(
		"another-access-secret-32-characters!!!",
		"another-refresh-secret-32-characters!!",
		15*time.Minute, time.Hour,
	)
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateAccessToken_RefreshTokenRejected(t *testing.T) {
	m := newTestManager()
	pair, _, err := m.GenerateTokenPair("user-123", "me@example.com")
	require.NoError(t, err)

	// A refresh token is signed with a different secret and must not pass
	// access validation.
	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	m := NewJWTManager(
		"test-access-secret-at-least-32-chars!!",
		"test-refresh-secret-at-least-32-chars!",
		-time.Minute,
		time.Hour,
	)
	pair, _, err := m.GenerateTokenPair("user-123", "me@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	m := newTestManager()
	_, err := m.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
}
