package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/discograf/discograf/pkg/catalog"
)

// Repository implements catalog.Repository using in-memory storage.
// InTx runs the function directly: there is no rollback, every write
// applies immediately. Suitable for tests and single-node development.
type Repository struct {
	mu            sync.RWMutex
	albums        map[uuid.UUID]*catalog.Album
	artists       map[uuid.UUID]*catalog.Artist
	regions       map[int]*catalog.Region
	covers        map[uuid.UUID]*catalog.Cover
	coversByAlbum map[uuid.UUID][]uuid.UUID // album_id -> []cover_id
}

// New creates a new in-memory repository
func New() catalog.Repository {
	return &Repository{
		albums:        make(map[uuid.UUID]*catalog.Album),
		artists:       make(map[uuid.UUID]*catalog.Artist),
		regions:       make(map[int]*catalog.Region),
		covers:        make(map[uuid.UUID]*catalog.Cover),
		coversByAlbum: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Album operations

func (r *Repository) CreateAlbum(ctx context.Context, album *catalog.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	albumCopy := *album
	albumCopy.ArtistIDs = append([]uuid.UUID(nil), album.ArtistIDs...)
	r.albums[album.ID] = &albumCopy

	return nil
}

func (r *Repository) GetAlbum(ctx context.Context, id uuid.UUID) (*catalog.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	album, exists := r.albums[id]
	if !exists {
		return nil, catalog.ErrAlbumNotFound
	}
	albumCopy := *album
	albumCopy.ArtistIDs = append([]uuid.UUID(nil), album.ArtistIDs...)
	return &albumCopy, nil
}

func (r *Repository) UpdateAlbum(ctx context.Context, album *catalog.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.albums[album.ID]; !exists {
		return catalog.ErrAlbumNotFound
	}

	albumCopy := *album
	albumCopy.ArtistIDs = append([]uuid.UUID(nil), album.ArtistIDs...)
	r.albums[album.ID] = &albumCopy

	return nil
}

func (r *Repository) DeleteAlbum(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.albums[id]; !exists {
		return catalog.ErrAlbumNotFound
	}

	delete(r.albums, id)
	for _, coverID := range r.coversByAlbum[id] {
		delete(r.covers, coverID)
	}
	delete(r.coversByAlbum, id)

	return nil
}

func (r *Repository) ListAlbums(ctx context.Context) ([]*catalog.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*catalog.Album, 0, len(r.albums))
	for _, album := range r.albums {
		albumCopy := *album
		albumCopy.ArtistIDs = append([]uuid.UUID(nil), album.ArtistIDs...)
		result = append(result, &albumCopy)
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) AddAlbumArtist(ctx context.Context, albumID, artistID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	album, exists := r.albums[albumID]
	if !exists {
		return catalog.ErrAlbumNotFound
	}
	if _, exists := r.artists[artistID]; !exists {
		return catalog.ErrArtistNotFound
	}
	for _, id := range album.ArtistIDs {
		if id == artistID {
			return nil
		}
	}
	album.ArtistIDs = append(album.ArtistIDs, artistID)
	return nil
}

func (r *Repository) RemoveAlbumArtist(ctx context.Context, albumID, artistID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	album, exists := r.albums[albumID]
	if !exists {
		return catalog.ErrAlbumNotFound
	}
	for i, id := range album.ArtistIDs {
		if id == artistID {
			album.ArtistIDs = append(album.ArtistIDs[:i], album.ArtistIDs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Artist operations

func (r *Repository) CreateArtist(ctx context.Context, artist *catalog.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artistCopy := *artist
	r.artists[artist.ID] = &artistCopy

	return nil
}

func (r *Repository) GetArtist(ctx context.Context, id uuid.UUID) (*catalog.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artist, exists := r.artists[id]
	if !exists {
		return nil, catalog.ErrArtistNotFound
	}
	artistCopy := *artist
	return &artistCopy, nil
}

func (r *Repository) UpdateArtist(ctx context.Context, artist *catalog.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artists[artist.ID]; !exists {
		return catalog.ErrArtistNotFound
	}

	artistCopy := *artist
	r.artists[artist.ID] = &artistCopy

	return nil
}

func (r *Repository) DeleteArtist(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artists[id]; !exists {
		return catalog.ErrArtistNotFound
	}
	delete(r.artists, id)

	for _, album := range r.albums {
		for i, artistID := range album.ArtistIDs {
			if artistID == id {
				album.ArtistIDs = append(album.ArtistIDs[:i], album.ArtistIDs[i+1:]...)
				break
			}
		}
	}

	return nil
}

func (r *Repository) ListArtists(ctx context.Context) ([]*catalog.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*catalog.Artist, 0, len(r.artists))
	for _, artist := range r.artists {
		artistCopy := *artist
		result = append(result, &artistCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Region operations

func (r *Repository) UpsertRegion(ctx context.Context, region *catalog.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	regionCopy := *region
	r.regions[region.ID] = &regionCopy

	return nil
}

func (r *Repository) GetRegion(ctx context.Context, id int) (*catalog.Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	region, exists := r.regions[id]
	if !exists {
		return nil, catalog.ErrRegionNotFound
	}
	regionCopy := *region
	return &regionCopy, nil
}

func (r *Repository) DeleteRegion(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.regions[id]; !exists {
		return catalog.ErrRegionNotFound
	}
	delete(r.regions, id)

	return nil
}

func (r *Repository) ListRegions(ctx context.Context) ([]*catalog.Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*catalog.Region, 0, len(r.regions))
	for _, region := range r.regions {
		regionCopy := *region
		result = append(result, &regionCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Cover operations

func (r *Repository) CreateCover(ctx context.Context, cover *catalog.Cover) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Verify album exists
	if _, exists := r.albums[cover.AlbumID]; !exists {
		return catalog.ErrAlbumNotFound
	}

	coverCopy := *cover
	r.covers[cover.ID] = &coverCopy
	r.coversByAlbum[cover.AlbumID] = append(r.coversByAlbum[cover.AlbumID], cover.ID)

	return nil
}

func (r *Repository) GetCover(ctx context.Context, id uuid.UUID) (*catalog.Cover, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cover, exists := r.covers[id]
	if !exists {
		return nil, catalog.ErrCoverNotFound
	}
	coverCopy := *cover
	return &coverCopy, nil
}

func (r *Repository) ListCoversByAlbum(ctx context.Context, albumID uuid.UUID) ([]*catalog.Cover, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coverIDs, exists := r.coversByAlbum[albumID]
	if !exists {
		return []*catalog.Cover{}, nil
	}

	result := make([]*catalog.Cover, 0, len(coverIDs))
	for _, coverID := range coverIDs {
		if cover, exists := r.covers[coverID]; exists {
			coverCopy := *cover
			result = append(result, &coverCopy)
		}
	}

	// Newest first; id descending breaks creation-time ties so the
	// order is deterministic.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return strings.Compare(result[i].ID.String(), result[j].ID.String()) > 0
	})

	return result, nil
}

func (r *Repository) CountCoversByAlbum(ctx context.Context, albumID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.coversByAlbum[albumID]), nil
}

func (r *Repository) GetPrimaryCover(ctx context.Context, albumID uuid.UUID) (*catalog.Cover, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, coverID := range r.coversByAlbum[albumID] {
		if cover, exists := r.covers[coverID]; exists && cover.IsPrimary {
			coverCopy := *cover
			return &coverCopy, nil
		}
	}
	return nil, catalog.ErrPrimaryCoverNotFound
}

// SetPrimaryCover flips the flags of every cover of the album in one
// step under the repository lock, mirroring the single conditional
// UPDATE of the PostgreSQL implementation.
func (r *Repository) SetPrimaryCover(ctx context.Context, albumID, coverID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, exists := r.covers[coverID]
	if !exists || target.AlbumID != albumID {
		return catalog.ErrCoverNotFound
	}

	now := time.Now().UTC()
	for _, id := range r.coversByAlbum[albumID] {
		cover, exists := r.covers[id]
		if !exists {
			continue
		}
		primary := id == coverID
		if cover.IsPrimary != primary {
			cover.IsPrimary = primary
			cover.UpdatedAt = &now
		}
	}

	return nil
}

func (r *Repository) DeleteCover(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cover, exists := r.covers[id]
	if !exists {
		return catalog.ErrCoverNotFound
	}

	delete(r.covers, id)
	ids := r.coversByAlbum[cover.AlbumID]
	for i, coverID := range ids {
		if coverID == id {
			r.coversByAlbum[cover.AlbumID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}

// InTx runs fn directly; the in-memory repository has no transactions.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
