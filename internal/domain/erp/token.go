package erp

import (
	"context"
	"time"
)

// TokenExpirySafetyMargin is subtracted from the token lifetime so that a
// token nearing expiry is never presented to the ERP. A token is usable only
// while now < expiresAt - margin.
const TokenExpirySafetyMargin = 60 * time.Second

// Token is an ERP access token with its absolute expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Usable reports whether the token is still presentable at the given time,
// honoring the safety margin.
func (t Token) Usable(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	return now.Before(t.ExpiresAt.Add(-TokenExpirySafetyMargin))
}

// TokenStore persists ERP access and refresh tokens. Implementations perform
// no network calls; the API client owns the authentication flow.
type TokenStore interface {
	// AccessToken returns the stored access token, or "" when absent or
	// expired (expiry check includes the safety margin).
	AccessToken(ctx context.Context) (string, error)

	// SaveAccessToken persists the token with an absolute expiry computed
	// from the lifetime reported by the ERP.
	SaveAccessToken(ctx context.Context, token string, expiresIn time.Duration) error

	// RefreshToken returns the stored refresh token, or "" when absent.
	RefreshToken(ctx context.Context) (string, error)

	// SaveRefreshToken persists the refresh token.
	SaveRefreshToken(ctx context.Context, token string) error

	// ClearAccessToken removes the access token and its expiry.
	ClearAccessToken(ctx context.Context) error

	// ClearAll removes both tokens.
	ClearAll(ctx context.Context) error
}
