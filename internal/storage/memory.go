package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore keeps objects in a map. Used by tests in place of MinIO.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailDeletes makes Delete return an error, for exercising the
	// delete-external-first failure path.
	FailDeletes bool
}

var _ ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = data
	return nil
}

func (s *MemoryStore) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, objectKey string) error {
	if s.FailDeletes {
		return errors.New("simulated storage failure")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[objectKey]; !exists {
		return errors.New("object not found")
	}
	delete(s.objects, objectKey)
	return nil
}

func (s *MemoryStore) PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.objects[objectKey]; !exists {
		return "", errors.New("object not found")
	}
	return fmt.Sprintf("memory://%s?expires=%d", objectKey, int64(expiry.Seconds())), nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
