package catalog

import (
	"io"

	"github.com/google/uuid"
)

// Request DTOs

// UploadCoverRequest contains parameters for attaching a cover image to
// an album. Content carries the bytes; Size and ContentType are the
// caller-declared values validated before any blob write.
type UploadCoverRequest struct {
	AlbumID     uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// CreateAlbumRequest contains parameters for creating an album
type CreateAlbumRequest struct {
	Title       string
	ReleaseYear int
	ArtistIDs   []uuid.UUID
}

// UpdateAlbumRequest contains parameters for updating an album
type UpdateAlbumRequest struct {
	ID          uuid.UUID
	Title       string
	ReleaseYear int
}

// CreateArtistRequest contains parameters for creating an artist
type CreateArtistRequest struct {
	Name string
	Type ArtistType
}

// UpdateArtistRequest contains parameters for updating an artist
type UpdateArtistRequest struct {
	ID   uuid.UUID
	Name string
	Type ArtistType
}

// UpsertRegionRequest contains parameters for creating or replacing a
// region entry
type UpsertRegionRequest struct {
	ID     int
	Name   string
	Active bool
}
