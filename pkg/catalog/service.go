package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service is the catalog backend: album/artist/region management plus
// the cover lifecycle in front of the object store.
type Service interface {
	// Album operations
	CreateAlbum(ctx context.Context, req CreateAlbumRequest) (*Album, error)
	GetAlbum(ctx context.Context, id uuid.UUID) (*Album, error)
	UpdateAlbum(ctx context.Context, req UpdateAlbumRequest) (*Album, error)
	// DeleteAlbum removes the album and cascades a best-effort removal
	// of every cover blob and record.
	DeleteAlbum(ctx context.Context, id uuid.UUID) error
	ListAlbums(ctx context.Context) ([]*Album, error)
	AddArtistToAlbum(ctx context.Context, albumID, artistID uuid.UUID) error
	RemoveArtistFromAlbum(ctx context.Context, albumID, artistID uuid.UUID) error

	// Artist operations
	CreateArtist(ctx context.Context, req CreateArtistRequest) (*Artist, error)
	GetArtist(ctx context.Context, id uuid.UUID) (*Artist, error)
	UpdateArtist(ctx context.Context, req UpdateArtistRequest) (*Artist, error)
	DeleteArtist(ctx context.Context, id uuid.UUID) error
	ListArtists(ctx context.Context) ([]*Artist, error)

	// Region operations
	UpsertRegion(ctx context.Context, req UpsertRegionRequest) (*Region, error)
	GetRegion(ctx context.Context, id int) (*Region, error)
	DeleteRegion(ctx context.Context, id int) error
	ListRegions(ctx context.Context) ([]*Region, error)

	// Cover lifecycle operations
	UploadCover(ctx context.Context, req UploadCoverRequest) (*CoverView, error)
	ListCovers(ctx context.Context, albumID uuid.UUID) ([]*CoverView, error)
	GetPrimaryCover(ctx context.Context, albumID uuid.UUID) (*CoverView, error)
	SetPrimaryCover(ctx context.Context, albumID, coverID uuid.UUID) (*CoverView, error)
	// DeleteCover is fail-fast: a blob-delete failure aborts before any
	// metadata change.
	DeleteCover(ctx context.Context, albumID, coverID uuid.UUID) error
	// DeleteAllCovers is best-effort: it continues past individual
	// failures. The asymmetry with DeleteCover is deliberate; callers of
	// the cascade prefer partial cleanup over aborting the album delete.
	DeleteAllCovers(ctx context.Context, albumID uuid.UUID) error
}
