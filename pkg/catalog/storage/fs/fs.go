package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/discograf/discograf/pkg/catalog"
)

// Backend is a filesystem implementation of the catalog.BlobStore
// interface, for local development without an object store. It cannot
// mint presigned URLs; access URLs always come from the URL prefix.
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // URL prefix the files are served under
}

// New creates a new filesystem storage backend
func New(config Config) (catalog.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

// EnsureBucket is satisfied by the base directory existing
func (b *Backend) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(b.baseDir, 0755)
}

// Put stores content under key, creating intermediate directories
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	filePath := filepath.Join(b.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath := filepath.Join(b.baseDir, key)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return errors.New("object not found")
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// Exists reports whether content is stored under key
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(b.baseDir, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// PresignGet is not supported; callers fall back to PublicURL
func (b *Backend) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", errors.New("presigned URLs are not supported by the filesystem backend")
}

// PublicURL returns the URL the file is served under
func (b *Backend) PublicURL(key string) string {
	if b.urlPrefix == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", b.urlPrefix, key)
}

// cleanupEmptyDirectories recursively removes empty directories up to
// baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
