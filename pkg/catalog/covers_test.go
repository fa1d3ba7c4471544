package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/discograf/discograf/pkg/catalog"
	"github.com/discograf/discograf/pkg/catalog/repo/memory"
	memorystorage "github.com/discograf/discograf/pkg/catalog/storage/memory"
)

func setupTestService(t *testing.T, options ...catalog.Option) (catalog.Service, *memorystorage.Backend) {
	t.Helper()

	store := memorystorage.New()
	options = append([]catalog.Option{
		catalog.WithRepository(memory.New()),
		catalog.WithBlobStore(store),
	}, options...)

	svc, err := catalog.New(options...)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc, store
}

func createTestAlbum(t *testing.T, svc catalog.Service) *catalog.Album {
	t.Helper()

	album, err := svc.CreateAlbum(context.Background(), catalog.CreateAlbumRequest{
		Title:       "Test Album",
		ReleaseYear: 2001,
	})
	require.NoError(t, err)
	return album
}

func uploadTestCover(t *testing.T, svc catalog.Service, albumID uuid.UUID, name string) *catalog.CoverView {
	t.Helper()

	data := []byte("fake image bytes for " + name)
	view, err := svc.UploadCover(context.Background(), catalog.UploadCoverRequest{
		AlbumID:     albumID,
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	})
	require.NoError(t, err)
	return view
}

func TestUploadCover(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)

	view := uploadTestCover(t, svc, album.ID, "front.JPG")

	assert.Equal(t, album.ID, view.AlbumID)
	assert.True(t, view.IsPrimary, "first cover should become primary")
	assert.Equal(t, "front.JPG", view.FileName)
	assert.NotEmpty(t, view.AccessURL)
	assert.Equal(t, 1, store.Len())

	second := uploadTestCover(t, svc, album.ID, "back.png")
	assert.False(t, second.IsPrimary, "later covers must not displace the primary")
	assert.Equal(t, 2, store.Len())
}

func TestUploadCoverObjectKey(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)

	uploadTestCover(t, svc, album.ID, "Front Cover.JPG")

	views, err := svc.ListCovers(context.Background(), album.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	// The synthetic URL embeds the object key.
	prefix := fmt.Sprintf("memory://albums/%s/", album.ID)
	assert.True(t, strings.HasPrefix(views[0].AccessURL, prefix), "unexpected URL %q", views[0].AccessURL)
	assert.Contains(t, views[0].AccessURL, ".jpg", "extension should be lowercased")
	assert.Equal(t, 1, store.Len())
}

func TestUploadCoverValidation(t *testing.T) {
	svc, store := setupTestService(t, catalog.WithMaxUploadSize(64))
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     catalog.UploadCoverRequest
		wantErr error
	}{
		{
			name: "unknown album",
			req: catalog.UploadCoverRequest{
				AlbumID:     uuid.New(),
				FileName:    "a.jpg",
				ContentType: "image/jpeg",
				Size:        4,
				Content:     bytes.NewReader([]byte("data")),
			},
			wantErr: catalog.ErrAlbumNotFound,
		},
		{
			name: "empty file",
			req: catalog.UploadCoverRequest{
				AlbumID:     album.ID,
				FileName:    "a.jpg",
				ContentType: "image/jpeg",
				Size:        0,
				Content:     bytes.NewReader(nil),
			},
			wantErr: catalog.ErrInvalidInput,
		},
		{
			name: "oversize file",
			req: catalog.UploadCoverRequest{
				AlbumID:     album.ID,
				FileName:    "a.jpg",
				ContentType: "image/jpeg",
				Size:        65,
				Content:     bytes.NewReader(make([]byte, 65)),
			},
			wantErr: catalog.ErrPayloadTooLarge,
		},
		{
			name: "not an image",
			req: catalog.UploadCoverRequest{
				AlbumID:     album.ID,
				FileName:    "a.pdf",
				ContentType: "application/pdf",
				Size:        4,
				Content:     bytes.NewReader([]byte("data")),
			},
			wantErr: catalog.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.UploadCover(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, view)
		})
	}

	// No validation failure may leave a blob behind.
	assert.Equal(t, 0, store.Len())
}

func TestUploadCoverStorageFailure(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)

	store.PutErr = func(key string) error { return errors.New("connection refused") }

	data := []byte("fake image bytes")
	_, err := svc.UploadCover(context.Background(), catalog.UploadCoverRequest{
		AlbumID:     album.ID,
		FileName:    "a.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrStorageUnavailable)

	// No record may exist without its blob.
	views, err := svc.ListCovers(context.Background(), album.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

// createCoverFailRepo makes the metadata insert fail after the blob
// write has already succeeded.
type createCoverFailRepo struct {
	catalog.Repository
}

func (r *createCoverFailRepo) CreateCover(ctx context.Context, cover *catalog.Cover) error {
	return errors.New("insert failed")
}

func TestUploadCoverMetadataFailureRemovesBlob(t *testing.T) {
	repo := &createCoverFailRepo{Repository: memory.New()}
	svc, store := setupTestService(t, catalog.WithRepository(repo))
	album := createTestAlbum(t, svc)

	data := []byte("fake image bytes")
	_, err := svc.UploadCover(context.Background(), catalog.UploadCoverRequest{
		AlbumID:     album.ID,
		FileName:    "a.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	})
	require.Error(t, err)

	var coverErr *catalog.CoverError
	assert.ErrorAs(t, err, &coverErr)

	// The compensating delete must remove the blob that was written
	// before the insert failed.
	assert.Equal(t, 0, store.Len())
}

func TestGetPrimaryCover(t *testing.T) {
	svc, _ := setupTestService(t)
	album := createTestAlbum(t, svc)

	_, err := svc.GetPrimaryCover(context.Background(), album.ID)
	assert.ErrorIs(t, err, catalog.ErrPrimaryCoverNotFound)

	first := uploadTestCover(t, svc, album.ID, "front.jpg")
	uploadTestCover(t, svc, album.ID, "back.jpg")

	primary, err := svc.GetPrimaryCover(context.Background(), album.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, primary.ID)
}

func TestSetPrimaryCover(t *testing.T) {
	svc, _ := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	first := uploadTestCover(t, svc, album.ID, "front.jpg")
	second := uploadTestCover(t, svc, album.ID, "back.jpg")

	promoted, err := svc.SetPrimaryCover(ctx, album.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsPrimary)

	views, err := svc.ListCovers(ctx, album.ID)
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == first.ID {
			assert.False(t, v.IsPrimary, "old primary must be demoted")
		}
	}

	primary, err := svc.GetPrimaryCover(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)
}

func TestSetPrimaryCoverWrongAlbum(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	album := createTestAlbum(t, svc)
	other, err := svc.CreateAlbum(ctx, catalog.CreateAlbumRequest{Title: "Other"})
	require.NoError(t, err)

	cover := uploadTestCover(t, svc, album.ID, "front.jpg")

	_, err = svc.SetPrimaryCover(ctx, other.ID, cover.ID)
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)

	// The real owner keeps its primary untouched.
	primary, err := svc.GetPrimaryCover(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, cover.ID, primary.ID)
}

func TestSetPrimaryCoverConcurrent(t *testing.T) {
	svc, _ := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	const n = 16
	covers := make([]*catalog.CoverView, n)
	for i := range covers {
		covers[i] = uploadTestCover(t, svc, album.ID, fmt.Sprintf("cover-%02d.jpg", i))
	}

	var g errgroup.Group
	for _, cover := range covers {
		coverID := cover.ID
		g.Go(func() error {
			_, err := svc.SetPrimaryCover(ctx, album.ID, coverID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	views, err := svc.ListCovers(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, views, n)

	primaries := 0
	for _, v := range views {
		if v.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries, "exactly one cover must be primary after concurrent swaps")
}

func TestDeleteCoverPromotesNewest(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	first := uploadTestCover(t, svc, album.ID, "first.jpg")
	second := uploadTestCover(t, svc, album.ID, "second.jpg")
	third := uploadTestCover(t, svc, album.ID, "third.jpg")

	// Deleting a non-primary cover leaves the primary alone.
	require.NoError(t, svc.DeleteCover(ctx, album.ID, second.ID))
	primary, err := svc.GetPrimaryCover(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, primary.ID)

	// Deleting the primary promotes the newest survivor.
	require.NoError(t, svc.DeleteCover(ctx, album.ID, first.ID))
	primary, err = svc.GetPrimaryCover(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, third.ID, primary.ID)

	// Deleting the last cover leaves the album with none.
	require.NoError(t, svc.DeleteCover(ctx, album.ID, third.ID))
	_, err = svc.GetPrimaryCover(ctx, album.ID)
	assert.ErrorIs(t, err, catalog.ErrPrimaryCoverNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestDeleteCoverWrongAlbum(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	album := createTestAlbum(t, svc)
	other, err := svc.CreateAlbum(ctx, catalog.CreateAlbumRequest{Title: "Other"})
	require.NoError(t, err)

	cover := uploadTestCover(t, svc, album.ID, "front.jpg")

	err = svc.DeleteCover(ctx, other.ID, cover.ID)
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)

	views, err := svc.ListCovers(ctx, album.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestDeleteCoverBlobFailureAborts(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	cover := uploadTestCover(t, svc, album.ID, "front.jpg")

	store.DeleteErr = func(key string) error { return errors.New("connection refused") }

	err := svc.DeleteCover(ctx, album.ID, cover.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrStorageUnavailable)

	// Fail-fast: the record survives an unreachable store.
	views, err := svc.ListCovers(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsPrimary)
}

func TestDeleteCoverDanglingRecord(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	cover := uploadTestCover(t, svc, album.ID, "front.jpg")

	// Drop the blob behind the record's back.
	key := strings.TrimPrefix(strings.SplitN(cover.AccessURL, "?", 2)[0], "memory://")
	require.NoError(t, store.Delete(ctx, key))

	// The dangling record is still deletable.
	require.NoError(t, svc.DeleteCover(ctx, album.ID, cover.ID))

	_, err := svc.GetPrimaryCover(ctx, album.ID)
	assert.ErrorIs(t, err, catalog.ErrPrimaryCoverNotFound)
}

func TestDeleteAllCoversBestEffort(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	uploadTestCover(t, svc, album.ID, "first.jpg")
	second := uploadTestCover(t, svc, album.ID, "second.jpg")
	uploadTestCover(t, svc, album.ID, "third.jpg")

	// One stuck blob must not abort the sweep.
	stuckKey := strings.TrimPrefix(strings.SplitN(second.AccessURL, "?", 2)[0], "memory://")
	store.DeleteErr = func(key string) error {
		if key == stuckKey {
			return errors.New("connection refused")
		}
		return nil
	}

	require.NoError(t, svc.DeleteAllCovers(ctx, album.ID))

	views, err := svc.ListCovers(ctx, album.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1, "the failed cover keeps its record")
}

func TestDeleteAlbumCascadesCovers(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)
	ctx := context.Background()

	uploadTestCover(t, svc, album.ID, "first.jpg")
	uploadTestCover(t, svc, album.ID, "second.jpg")

	require.NoError(t, svc.DeleteAlbum(ctx, album.ID))

	_, err := svc.GetAlbum(ctx, album.ID)
	assert.ErrorIs(t, err, catalog.ErrAlbumNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestListCoversNewestFirst(t *testing.T) {
	svc, _ := setupTestService(t)
	album := createTestAlbum(t, svc)

	uploadTestCover(t, svc, album.ID, "first.jpg")
	uploadTestCover(t, svc, album.ID, "second.jpg")
	third := uploadTestCover(t, svc, album.ID, "third.jpg")

	views, err := svc.ListCovers(context.Background(), album.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, third.ID, views[0].ID)
}

func TestAccessURLFallsBackToPublicURL(t *testing.T) {
	svc, store := setupTestService(t)
	album := createTestAlbum(t, svc)

	store.PresignErr = func(key string) error { return errors.New("signer unavailable") }

	view := uploadTestCover(t, svc, album.ID, "front.jpg")
	assert.True(t, strings.HasPrefix(view.AccessURL, "memory://"), "unexpected URL %q", view.AccessURL)
	assert.NotContains(t, view.AccessURL, "expires=", "fallback URL must not be presigned")
}
