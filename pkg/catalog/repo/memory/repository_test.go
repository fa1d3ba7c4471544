package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discograf/discograf/pkg/catalog"
	"github.com/discograf/discograf/pkg/catalog/repo/memory"
)

func testCover(albumID uuid.UUID, isPrimary bool, createdAt time.Time) *catalog.Cover {
	return &catalog.Cover{
		ID:          uuid.New(),
		AlbumID:     albumID,
		FileName:    "cover.jpg",
		ObjectKey:   "albums/" + albumID.String() + "/" + uuid.NewString() + ".jpg",
		ContentType: "image/jpeg",
		FileSize:    128,
		IsPrimary:   isPrimary,
		CreatedAt:   createdAt,
	}
}

func TestCoverOrdering(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	albumID := uuid.New()
	require.NoError(t, repo.CreateAlbum(ctx, &catalog.Album{ID: albumID, Title: "Ordering", CreatedAt: time.Now().UTC()}))

	base := time.Now().UTC()
	oldest := testCover(albumID, true, base.Add(-2*time.Hour))
	middle := testCover(albumID, false, base.Add(-time.Hour))
	newest := testCover(albumID, false, base)

	for _, c := range []*catalog.Cover{middle, newest, oldest} {
		require.NoError(t, repo.CreateCover(ctx, c))
	}

	covers, err := repo.ListCoversByAlbum(ctx, albumID)
	require.NoError(t, err)
	require.Len(t, covers, 3)
	assert.Equal(t, newest.ID, covers[0].ID)
	assert.Equal(t, oldest.ID, covers[2].ID)

	count, err := repo.CountCoversByAlbum(ctx, albumID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSetPrimaryCoverSwap(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	albumID := uuid.New()
	require.NoError(t, repo.CreateAlbum(ctx, &catalog.Album{ID: albumID, Title: "Swap", CreatedAt: time.Now().UTC()}))

	first := testCover(albumID, true, time.Now().UTC())
	second := testCover(albumID, false, time.Now().UTC())
	require.NoError(t, repo.CreateCover(ctx, first))
	require.NoError(t, repo.CreateCover(ctx, second))

	require.NoError(t, repo.SetPrimaryCover(ctx, albumID, second.ID))

	primary, err := repo.GetPrimaryCover(ctx, albumID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	demoted, err := repo.GetCover(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsPrimary)
	require.NotNil(t, demoted.UpdatedAt)

	// A swap to a cover of a different album must not touch this album.
	err = repo.SetPrimaryCover(ctx, albumID, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrCoverNotFound)
	primary, err = repo.GetPrimaryCover(ctx, albumID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	album := &catalog.Album{
		ID:        uuid.New(),
		Title:     "Original",
		ArtistIDs: []uuid.UUID{uuid.New()},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateAlbum(ctx, album))

	got, err := repo.GetAlbum(ctx, album.ID)
	require.NoError(t, err)
	got.Title = "Mutated"
	got.ArtistIDs[0] = uuid.New()

	again, err := repo.GetAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
	assert.Equal(t, album.ArtistIDs, again.ArtistIDs)
}

func TestDeleteAlbumCleansCoverIndex(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	album := &catalog.Album{ID: uuid.New(), Title: "Doomed", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateAlbum(ctx, album))

	cover := testCover(album.ID, true, time.Now().UTC())
	require.NoError(t, repo.CreateCover(ctx, cover))

	require.NoError(t, repo.DeleteAlbum(ctx, album.ID))

	_, err := repo.GetCover(ctx, cover.ID)
	assert.ErrorIs(t, err, catalog.ErrCoverNotFound)

	covers, err := repo.ListCoversByAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Empty(t, covers)
}

func TestNotFoundErrors(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.GetAlbum(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrAlbumNotFound)

	_, err = repo.GetArtist(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrArtistNotFound)

	_, err = repo.GetRegion(ctx, 999)
	assert.ErrorIs(t, err, catalog.ErrRegionNotFound)

	_, err = repo.GetPrimaryCover(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrPrimaryCoverNotFound)

	err = repo.DeleteCover(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrCoverNotFound)
}
