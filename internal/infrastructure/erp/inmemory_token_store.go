package erp

import (
	"context"
	"sync"
	"time"

	erpdomain "github.com/citypaints/erp-sync/internal/domain/erp"
)

// Ensure InMemoryTokenStore implements TokenStore
var _ erpdomain.TokenStore = (*InMemoryTokenStore)(nil)

// InMemoryTokenStore keeps ERP tokens in process memory. Suitable for
// single-instance deployments and tests; use RedisTokenStore when several
// instances share one ERP session.
type InMemoryTokenStore struct {
	mu      sync.RWMutex
	access  erpdomain.Token
	refresh string

	// now allows tests to control the clock.
	now func() time.Time
}

// NewInMemoryTokenStore creates an empty in-memory token store
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{now: time.Now}
}

// AccessToken returns the stored access token, or "" when absent or expired.
func (s *InMemoryTokenStore) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.access.Usable(s.now()) {
		return "", nil
	}
	return s.access.AccessToken, nil
}

// SaveAccessToken persists the token with an absolute expiry.
func (s *InMemoryTokenStore) SaveAccessToken(_ context.Context, token string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = erpdomain.Token{
		AccessToken: token,
		ExpiresAt:   s.now().Add(expiresIn),
	}
	return nil
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *InMemoryTokenStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, nil
}

// SaveRefreshToken persists the refresh token.
func (s *InMemoryTokenStore) SaveRefreshToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = token
	return nil
}

// ClearAccessToken removes the access token.
func (s *InMemoryTokenStore) ClearAccessToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = erpdomain.Token{}
	return nil
}

// ClearAll removes both tokens.
func (s *InMemoryTokenStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = erpdomain.Token{}
	s.refresh = ""
	return nil
}
