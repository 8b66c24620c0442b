package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	lookup := func(ctx context.Context, userID string) (string, error) {
		return "me@example.com", nil
	}
	return NewService(newTestManager(), client, lookup)
}

func TestService_RefreshRotation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.GenerateTokens(ctx, "user-123", "me@example.com")
	require.NoError(t, err)

	fresh, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, fresh.AccessToken)

	claims, err := svc.ValidateAccessToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", claims.Email)

	// The presented refresh token was revoked on use.
	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.Error(t, err)
}

func TestService_LogoutRevokesAllTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p1, err := svc.GenerateTokens(ctx, "user-123", "me@example.com")
	require.NoError(t, err)
	p2, err := svc.GenerateTokens(ctx, "user-123", "me@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "user-123"))

	_, err = svc.RefreshTokens(ctx, p1.RefreshToken)
	assert.Error(t, err)
	_, err = svc.RefreshTokens(ctx, p2.RefreshToken)
	assert.Error(t, err)
}

func TestService_RefreshRejectsForgedToken(t *testing.T) {
	svc := newTestService(t)

	forged := NewJWTManager(
		"another-access-secret-32-characters!!!",
		"another-refresh-secret-32-characters!!",
		15*time.Minute, time.Hour,
	)
	pair, _, err := forged.GenerateTokenPair("user-123", "me@example.com")
	require.NoError(t, err)

	_, err = svc.RefreshTokens(context.Background(), pair.RefreshToken)
	assert.Error(t, err)
}
