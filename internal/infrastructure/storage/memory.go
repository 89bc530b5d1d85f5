package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainerrors "leadhub.backend/internal/domain/errors"
)

// MemoryStore is an in-memory ObjectStore used as a test double. It never
// backs a production code path.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailUploads makes Upload fail, for exercising storage-error paths.
	FailUploads bool
}

type memoryObject struct {
	contentType string
	data        []byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	if s.FailUploads {
		return domainerrors.ErrStorage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = memoryObject{contentType: contentType, data: cp}
	return nil
}

func (s *MemoryStore) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) SignedURL(key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?expires=%d", key, int64(expires.Seconds())), nil
}

// Len reports the number of stored objects
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Has reports whether the key exists
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}
