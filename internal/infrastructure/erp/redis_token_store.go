package erp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	erpdomain "github.com/citypaints/erp-sync/internal/domain/erp"
)

// Ensure RedisTokenStore implements TokenStore
var _ erpdomain.TokenStore = (*RedisTokenStore)(nil)

const (
	accessTokenKey  = "erp:token:access"
	refreshTokenKey = "erp:token:refresh"
)

// RedisTokenStore persists ERP tokens in Redis. Expiry is enforced by the key
// TTL: the safety margin is subtracted from the ERP-reported lifetime at save
// time, so an expired or near-expiry token simply reads back as absent. The
// shared store lets every instance reuse one token instead of each holding
// its own login session.
type RedisTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenStore creates a Redis-backed token store. keyPrefix namespaces
// the keys; it may be empty.
func NewRedisTokenStore(client *redis.Client, keyPrefix string) *RedisTokenStore {
	return &RedisTokenStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// AccessToken returns the stored access token, or "" when absent or expired.
func (s *RedisTokenStore) AccessToken(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.keyPrefix+accessTokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	return token, nil
}

// SaveAccessToken persists the token with a TTL shortened by the safety
// margin. A lifetime at or below the margin is treated as already expired.
func (s *RedisTokenStore) SaveAccessToken(ctx context.Context, token string, expiresIn time.Duration) error {
	ttl := expiresIn - erpdomain.TokenExpirySafetyMargin
	if ttl <= 0 {
		return s.ClearAccessToken(ctx)
	}
	if err := s.client.Set(ctx, s.keyPrefix+accessTokenKey, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *RedisTokenStore) RefreshToken(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.keyPrefix+refreshTokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	return token, nil
}

// SaveRefreshToken persists the refresh token without expiry.
func (s *RedisTokenStore) SaveRefreshToken(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.keyPrefix+refreshTokenKey, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// ClearAccessToken removes the access token.
func (s *RedisTokenStore) ClearAccessToken(ctx context.Context) error {
	if err := s.client.Del(ctx, s.keyPrefix+accessTokenKey).Err(); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	return nil
}

// ClearAll removes both tokens.
func (s *RedisTokenStore) ClearAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.keyPrefix+accessTokenKey, s.keyPrefix+refreshTokenKey).Err(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}
