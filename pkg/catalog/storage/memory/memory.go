package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Backend is an in-memory implementation of the catalog.BlobStore
// interface, intended for tests and local development.
type Backend struct {
	mu          sync.RWMutex
	objects     map[string][]byte
	contentType map[string]string

	// Optional failure hooks. When set, the matching operation calls the
	// hook first and aborts on a non-nil error.
	PutErr     func(key string) error
	DeleteErr  func(key string) error
	PresignErr func(key string) error
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:     make(map[string][]byte),
		contentType: make(map[string]string),
	}
}

// EnsureBucket is a no-op for the memory backend
func (b *Backend) EnsureBucket(ctx context.Context) error {
	return nil
}

// Put stores content under key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if b.PutErr != nil {
		if err := b.PutErr(key); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.contentType[key] = contentType
	return nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, key string) error {
	if b.DeleteErr != nil {
		if err := b.DeleteErr(key); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return errors.New("object not found")
	}

	delete(b.objects, key)
	delete(b.contentType, key)
	return nil
}

// Exists reports whether content is stored under key
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[key]
	return exists, nil
}

// PresignGet returns a synthetic URL carrying the expiry, so tests can
// assert on both the key and the requested lifetime.
func (b *Backend) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if b.PresignErr != nil {
		if err := b.PresignErr(key); err != nil {
			return "", err
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[key]; !exists {
		return "", errors.New("object not found")
	}

	return fmt.Sprintf("memory://%s?expires=%d", key, int64(expiry.Seconds())), nil
}

// PublicURL returns a synthetic non-expiring URL for the object
func (b *Backend) PublicURL(key string) string {
	return "memory://" + key
}

// Get returns the stored content, for test assertions
func (b *Backend) Get(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[key]
	if !exists {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Len returns the number of stored objects, for test assertions
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.objects)
}
