package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	syncapp "github.com/citypaints/erp-sync/internal/application/sync"
)

// Ensure StubObjectStorage implements the image attacher's storage port
var _ syncapp.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage is the fallback backend used when no object storage is
// configured. Uploads are accepted and only the keys are remembered, so sync
// runs complete without a bucket; the mirrored bytes are discarded.
type StubObjectStorage struct {
	// BaseURL is the base URL used for generated download URLs.
	// Defaults to "https://storage.invalid" if not set.
	BaseURL string

	mu   sync.Mutex
	keys map[string]struct{}
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.invalid",
		keys:    make(map[string]struct{}),
	}
}

// Upload remembers the key and discards the data
func (s *StubObjectStorage) Upload(_ context.Context, storageKey string, _ []byte, _ string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[storageKey] = struct{}{}
	return nil
}

// ObjectExists reports whether the key was uploaded during this process
func (s *StubObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[storageKey]
	return ok, nil
}

// DeleteObject forgets the key
func (s *StubObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, storageKey)
	return nil
}

// GenerateDownloadURL returns a synthetic URL under BaseURL
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + storageKey, expiresAt, nil
}
