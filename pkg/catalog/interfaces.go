package catalog

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the capability interface over the external object
// store. All operations are synchronous; failures surface as
// backend-specific errors that the service wraps into StorageError.
type BlobStore interface {
	// Put writes a blob under objectKey
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error

	// Delete removes the blob under objectKey
	Delete(ctx context.Context, objectKey string) error

	// Exists reports whether a blob is stored under objectKey
	Exists(ctx context.Context, objectKey string) (bool, error)

	// PresignGet returns a time-limited read URL for objectKey, valid
	// only for the given expiry
	PresignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error)

	// PublicURL returns the non-expiring URL for objectKey. Used only as
	// a degraded fallback when presigning fails.
	PublicURL(objectKey string) string

	// EnsureBucket creates the backing container if it does not exist.
	// Idempotent; invoked lazily before the first write.
	EnsureBucket(ctx context.Context) error
}

// Repository defines the interface for catalog and cover persistence.
type Repository interface {
	// Album operations
	CreateAlbum(ctx context.Context, album *Album) error
	GetAlbum(ctx context.Context, id uuid.UUID) (*Album, error)
	UpdateAlbum(ctx context.Context, album *Album) error
	DeleteAlbum(ctx context.Context, id uuid.UUID) error
	ListAlbums(ctx context.Context) ([]*Album, error)
	AddAlbumArtist(ctx context.Context, albumID, artistID uuid.UUID) error
	RemoveAlbumArtist(ctx context.Context, albumID, artistID uuid.UUID) error

	// Artist operations
	CreateArtist(ctx context.Context, artist *Artist) error
	GetArtist(ctx context.Context, id uuid.UUID) (*Artist, error)
	UpdateArtist(ctx context.Context, artist *Artist) error
	DeleteArtist(ctx context.Context, id uuid.UUID) error
	ListArtists(ctx context.Context) ([]*Artist, error)

	// Region operations
	UpsertRegion(ctx context.Context, region *Region) error
	GetRegion(ctx context.Context, id int) (*Region, error)
	DeleteRegion(ctx context.Context, id int) error
	ListRegions(ctx context.Context) ([]*Region, error)

	// Cover operations
	CreateCover(ctx context.Context, cover *Cover) error
	GetCover(ctx context.Context, id uuid.UUID) (*Cover, error)
	// ListCoversByAlbum returns covers newest first; ties on creation
	// time break by descending id for determinism.
	ListCoversByAlbum(ctx context.Context, albumID uuid.UUID) ([]*Cover, error)
	CountCoversByAlbum(ctx context.Context, albumID uuid.UUID) (int, error)
	GetPrimaryCover(ctx context.Context, albumID uuid.UUID) (*Cover, error)
	// SetPrimaryCover flips the primary flag to coverID and clears every
	// other cover of the album in one storage-level step.
	SetPrimaryCover(ctx context.Context, albumID, coverID uuid.UUID) error
	DeleteCover(ctx context.Context, id uuid.UUID) error

	// InTx runs fn inside a unit of work. Everything fn writes through
	// the ctx-bound transaction commits together or not at all.
	// Implementations without transactions run fn directly.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier defines the deferred event-publication mechanism. Announce
// inside an active unit of work queues the event; Stage binds a pending
// buffer to the context and returns the settle function that flushes
// (commit) or discards (rollback) the buffer.
type Notifier interface {
	// Announce queues ev if ctx carries a staged buffer, otherwise
	// delivers it immediately.
	Announce(ctx context.Context, ev Event)

	// Stage attaches a pending event buffer to ctx. The returned settle
	// func must be called exactly once on every exit path: settle(true)
	// delivers the buffered events, settle(false) drops them.
	Stage(ctx context.Context) (context.Context, func(commit bool))
}
