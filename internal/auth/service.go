package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EmailLookup resolves a user ID to its email for claims on refreshed tokens.
type EmailLookup func(ctx context.Context, userID string) (string, error)

type Service struct {
	jwt         *JWTManager
	redisClient redis.Cmdable
	emailOf     EmailLookup
}

func NewService(jwt *JWTManager, redisClient redis.Cmdable, emailOf EmailLookup) *Service {
	return &Service{
		jwt:         jwt,
		redisClient: redisClient,
		emailOf:     emailOf,
	}
}

func (s *Service) GenerateTokens(ctx context.Context, userID, email string) (*TokenPair, error) {
	pair, tokenID, err := s.jwt.GenerateTokenPair(userID, email)
	if err != nil {
		return nil, err
	}

	key := refreshKey(userID, tokenID)
	if err := s.redisClient.Set(ctx, key, "1", s.jwt.RefreshExpiry()).Err(); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return pair, nil
}

// RefreshTokens rotates a refresh token: the presented token is revoked and a
// fresh pair is issued. A token ID missing from Redis means it was already
// used or logged out.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	key := refreshKey(claims.UserID, claims.TokenID)
	exists, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("checking refresh token: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("refresh token revoked")
	}

	s.redisClient.Del(ctx, key)

	email := ""
	if s.emailOf != nil {
		email, err = s.emailOf(ctx, claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolving user email: %w", err)
		}
	}

	return s.GenerateTokens(ctx, claims.UserID, email)
}

// Logout revokes every refresh token issued to the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	pattern := refreshKey(userID, "*")
	iter := s.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		s.redisClient.Del(ctx, iter.Val())
	}
	return iter.Err()
}

func (s *Service) ValidateAccessToken(token string) (*AccessClaims, error) {
	return s.jwt.ValidateAccessToken(token)
}

func refreshKey(userID, tokenID string) string {
	return fmt.Sprintf("refresh:%s:%s", userID, tokenID)
}
