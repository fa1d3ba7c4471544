package catalog

import (
	"time"

	"github.com/google/uuid"
)

// ArtistType is the domain type for artist classification.
type ArtistType string

// Artist type constants (typed).
const (
	ArtistTypeSolo ArtistType = "solo"
	ArtistTypeBand ArtistType = "band"
)

// Album represents a catalog album. Covers are owned by the album:
// deleting the album removes every cover and its stored blob.
type Album struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	ReleaseYear int         `json:"release_year,omitempty"`
	ArtistIDs   []uuid.UUID `json:"artist_ids,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Artist represents a performer or band in the catalog.
type Artist struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Type      ArtistType `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
}

// Region represents a regional catalog partition.
type Region struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cover is the metadata record for one stored cover image. The record
// and the blob under ObjectKey are created and destroyed together;
// ObjectKey is immutable for the lifetime of the record.
//
// At most one cover per album has IsPrimary set at any committed
// instant. A zero-primary state is legal only for albums with no
// covers, or transiently inside a primary reassignment.
type Cover struct {
	ID          uuid.UUID  `json:"id"`
	AlbumID     uuid.UUID  `json:"album_id"`
	FileName    string     `json:"file_name"`
	ObjectKey   string     `json:"object_key"`
	ContentType string     `json:"content_type"`
	FileSize    int64      `json:"file_size"`
	IsPrimary   bool       `json:"is_primary"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// CoverView is the externally visible shape of a cover. AccessURL is a
// freshly minted capability URL, never a stored value: it is presigned
// on every call and each issuance carries its own expiry window.
type CoverView struct {
	ID          uuid.UUID `json:"id"`
	AlbumID     uuid.UUID `json:"album_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	IsPrimary   bool      `json:"is_primary"`
	AccessURL   string    `json:"access_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event type constants.
const (
	EventAlbumCreated = "album.created"
)

// Event is a change notification delivered to subscribers after the
// originating write commits.
type Event struct {
	Type       string    `json:"type"`
	AlbumID    uuid.UUID `json:"album_id"`
	Title      string    `json:"title,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
