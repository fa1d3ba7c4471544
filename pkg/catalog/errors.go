package catalog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrAlbumNotFound indicates an album was not found
	ErrAlbumNotFound = errors.New("album not found")

	// ErrArtistNotFound indicates an artist was not found
	ErrArtistNotFound = errors.New("artist not found")

	// ErrRegionNotFound indicates a region was not found
	ErrRegionNotFound = errors.New("region not found")

	// ErrCoverNotFound indicates a cover was not found
	ErrCoverNotFound = errors.New("cover not found")

	// ErrPrimaryCoverNotFound indicates an album has no primary cover
	ErrPrimaryCoverNotFound = errors.New("primary cover not found")

	// ErrInvalidInput indicates a caller error: empty file, wrong content
	// type, or a cover/album ownership mismatch. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPayloadTooLarge indicates the declared upload size exceeds the
	// configured maximum
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrStorageUnavailable indicates an object-store operation failed
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// CoverError represents an error related to cover lifecycle operations
type CoverError struct {
	AlbumID uuid.UUID
	CoverID uuid.UUID
	Op      string
	Err     error
}

func (e *CoverError) Error() string {
	if e.CoverID == uuid.Nil {
		return fmt.Sprintf("cover operation %s failed for album %s: %v", e.Op, e.AlbumID, e.Err)
	}
	return fmt.Sprintf("cover operation %s failed for cover %s (album %s): %v", e.Op, e.CoverID, e.AlbumID, e.Err)
}

func (e *CoverError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to object-store operations
type StorageError struct {
	Bucket string
	Key    string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Bucket == "" {
		return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s in bucket %s: %v", e.Op, e.Key, e.Bucket, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports every StorageError as ErrStorageUnavailable so callers can
// classify without inspecting backend-specific causes.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
