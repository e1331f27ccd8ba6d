package repository

import (
	"fmt"
	"sync"
	"time"

	"autofill-workbench/internal/domain"

	"github.com/google/uuid"
)

// MemoryBlobStore keeps ephemeral references in process memory. A blob is
// addressable through URL(id) until it is released.
type MemoryBlobStore struct {
	mu       sync.RWMutex
	blobs    map[string]*domain.Blob
	basePath string
	logger   domain.Logger

	created  int
	released int
}

// NewMemoryBlobStore creates a store serving blobs under basePath (e.g. "/blobs").
func NewMemoryBlobStore(basePath string, logger domain.Logger) *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs:    make(map[string]*domain.Blob),
		basePath: basePath,
		logger:   logger,
	}
}

// Create registers content and returns its blob.
func (s *MemoryBlobStore) Create(contentType string, content []byte) (*domain.Blob, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("create blob: %w", domain.ErrInvalidFile)
	}
	blob := &domain.Blob{
		ID:          uuid.New().String(),
		ContentType: contentType,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[blob.ID] = blob
	s.created++
	s.mu.Unlock()

	s.logger.Debug("Blob created", "blob_id", blob.ID, "content_type", contentType, "size", len(content))
	return blob, nil
}

// Get returns a live blob.
func (s *MemoryBlobStore) Get(id string) (*domain.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[id]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return blob, nil
}

// Release drops a blob. Releasing an unknown id returns ErrBlobNotFound.
func (s *MemoryBlobStore) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(s.blobs, id)
	s.released++
	s.logger.Debug("Blob released", "blob_id", id)
	return nil
}

// URL returns the address a browser can load the blob from.
func (s *MemoryBlobStore) URL(id string) string {
	return s.basePath + "/" + id
}

// Live returns the number of unreleased blobs.
func (s *MemoryBlobStore) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Stats returns how many blobs were created and released so far.
func (s *MemoryBlobStore) Stats() (created, released int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, s.released
}
