package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
)

// InMemoryObjectStorage holds archive objects in a map. Used for
// development and tests, and as the backing store when archiving to S3
// is disabled but the archive job still runs.
type InMemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL is the base URL for generated download URLs
	BaseURL string
}

// NewInMemoryObjectStorage creates a new in-memory object storage
func NewInMemoryObjectStorage() *InMemoryObjectStorage {
	return &InMemoryObjectStorage{
		objects: make(map[string][]byte),
		BaseURL: "https://archive.invalid",
	}
}

// Ensure InMemoryObjectStorage implements the archiver's store interface
var _ pls.ArchiveStore = (*InMemoryObjectStorage)(nil)

// Upload stores an object in memory
func (s *InMemoryObjectStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}

// Get returns a stored object (for tests and dev inspection)
func (s *InMemoryObjectStorage) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// ObjectExists checks if an object was stored
func (s *InMemoryObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// DeleteObject removes an object
func (s *InMemoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// GenerateDownloadURL generates a fake download URL
func (s *InMemoryObjectStorage) GenerateDownloadURL(
	_ context.Context,
	key string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + key, expiresAt, nil
}

// Count returns the number of stored objects
func (s *InMemoryObjectStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
