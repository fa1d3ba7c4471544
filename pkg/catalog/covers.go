package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cover lifecycle operations.
//
// The object store and the metadata store share no transaction; the
// only consistency mechanism is ordering. Writes go blob-then-metadata
// and deletes go blob-then-metadata too, so a crash between the two
// steps leaves at worst an orphaned blob, never a record pointing at a
// missing blob.

func (s *service) UploadCover(ctx context.Context, req UploadCoverRequest) (*CoverView, error) {
	if _, err := s.repository.GetAlbum(ctx, req.AlbumID); err != nil {
		return nil, err
	}

	if req.Content == nil || req.Size == 0 {
		return nil, fmt.Errorf("%w: file must not be empty", ErrInvalidInput)
	}
	if req.Size > s.maxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, s.maxUploadSize)
	}
	if !strings.HasPrefix(req.ContentType, s.allowedContentType) {
		return nil, fmt.Errorf("%w: content type %q is not an image", ErrInvalidInput, req.ContentType)
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, &StorageError{Key: "", Op: "ensure_bucket", Err: err}
	}

	objectKey := coverObjectKey(req.AlbumID, req.FileName)
	if err := s.store.Put(ctx, objectKey, req.Content, req.Size, req.ContentType); err != nil {
		return nil, &StorageError{Key: objectKey, Op: "put", Err: err}
	}

	// The first-cover check is read-then-write; hold the album lock so
	// two concurrent first uploads cannot both become primary.
	unlock := s.albums.Lock(req.AlbumID)
	defer unlock()

	count, err := s.repository.CountCoversByAlbum(ctx, req.AlbumID)
	if err != nil {
		s.compensateBlob(ctx, objectKey)
		return nil, &CoverError{AlbumID: req.AlbumID, Op: "upload", Err: err}
	}

	cover := &Cover{
		ID:          uuid.New(),
		AlbumID:     req.AlbumID,
		FileName:    req.FileName,
		ObjectKey:   objectKey,
		ContentType: req.ContentType,
		FileSize:    req.Size,
		IsPrimary:   count == 0,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repository.CreateCover(ctx, cover); err != nil {
		s.compensateBlob(ctx, objectKey)
		return nil, &CoverError{AlbumID: req.AlbumID, CoverID: cover.ID, Op: "upload", Err: err}
	}

	s.logger.Info("cover uploaded", "album_id", req.AlbumID, "cover_id", cover.ID, "primary", cover.IsPrimary)

	return s.buildView(ctx, cover), nil
}

// compensateBlob removes a blob whose metadata insert failed. Best
// effort: if the compensation itself fails the blob is orphaned and
// must wait for an out-of-band sweep.
func (s *service) compensateBlob(ctx context.Context, objectKey string) {
	if err := s.store.Delete(ctx, objectKey); err != nil {
		s.logger.Error("orphaned blob after failed metadata write", "object_key", objectKey, "error", err)
	}
}

func (s *service) ListCovers(ctx context.Context, albumID uuid.UUID) ([]*CoverView, error) {
	if _, err := s.repository.GetAlbum(ctx, albumID); err != nil {
		return nil, err
	}

	covers, err := s.repository.ListCoversByAlbum(ctx, albumID)
	if err != nil {
		return nil, &CoverError{AlbumID: albumID, Op: "list", Err: err}
	}

	views := make([]*CoverView, 0, len(covers))
	for _, cover := range covers {
		views = append(views, s.buildView(ctx, cover))
	}
	return views, nil
}

func (s *service) GetPrimaryCover(ctx context.Context, albumID uuid.UUID) (*CoverView, error) {
	cover, err := s.repository.GetPrimaryCover(ctx, albumID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cover), nil
}

func (s *service) SetPrimaryCover(ctx context.Context, albumID, coverID uuid.UUID) (*CoverView, error) {
	cover, err := s.repository.GetCover(ctx, coverID)
	if err != nil {
		return nil, err
	}
	if cover.AlbumID != albumID {
		return nil, fmt.Errorf("%w: cover does not belong to the given album", ErrInvalidInput)
	}

	unlock := s.albums.Lock(albumID)
	defer unlock()

	// One storage-level step: flips coverID on and every other cover of
	// the album off, so no interleaving can commit two primaries.
	if err := s.repository.SetPrimaryCover(ctx, albumID, coverID); err != nil {
		return nil, &CoverError{AlbumID: albumID, CoverID: coverID, Op: "set_primary", Err: err}
	}

	cover, err = s.repository.GetCover(ctx, coverID)
	if err != nil {
		return nil, &CoverError{AlbumID: albumID, CoverID: coverID, Op: "set_primary", Err: err}
	}
	return s.buildView(ctx, cover), nil
}

// DeleteCover removes one cover: blob first, then the metadata record.
// Fail-fast: a blob-delete failure aborts before any metadata change so
// the record never references a missing blob. A record whose blob is
// already gone is treated as dangling and removed without a blob
// delete.
func (s *service) DeleteCover(ctx context.Context, albumID, coverID uuid.UUID) error {
	cover, err := s.repository.GetCover(ctx, coverID)
	if err != nil {
		return err
	}
	if cover.AlbumID != albumID {
		return fmt.Errorf("%w: cover does not belong to the given album", ErrInvalidInput)
	}

	unlock := s.albums.Lock(albumID)
	defer unlock()

	exists, err := s.store.Exists(ctx, cover.ObjectKey)
	if err != nil {
		return &StorageError{Key: cover.ObjectKey, Op: "exists", Err: err}
	}
	if exists {
		if err := s.store.Delete(ctx, cover.ObjectKey); err != nil {
			return &StorageError{Key: cover.ObjectKey, Op: "delete", Err: err}
		}
	}

	if err := s.repository.DeleteCover(ctx, coverID); err != nil {
		s.logger.Error("dangling cover record after blob delete",
			"album_id", albumID, "cover_id", coverID, "object_key", cover.ObjectKey, "error", err)
		return &CoverError{AlbumID: albumID, CoverID: coverID, Op: "delete", Err: err}
	}

	// Promote the most recently created remaining cover.
	if cover.IsPrimary {
		if err := s.promoteNewest(ctx, albumID); err != nil {
			return &CoverError{AlbumID: albumID, CoverID: coverID, Op: "delete_promote", Err: err}
		}
	}

	s.logger.Info("cover deleted", "album_id", albumID, "cover_id", coverID)
	return nil
}

// promoteNewest makes the newest remaining cover primary. An album left
// with no covers stays in the zero-primary state.
func (s *service) promoteNewest(ctx context.Context, albumID uuid.UUID) error {
	covers, err := s.repository.ListCoversByAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	if len(covers) == 0 {
		return nil
	}
	return s.repository.SetPrimaryCover(ctx, albumID, covers[0].ID)
}

// DeleteAllCovers is the cascade path used when an album is removed.
// Unlike DeleteCover it is best-effort: each cover's blob and record
// are attempted independently and individual failures are logged, not
// returned, so one unreachable blob cannot wedge an album delete.
func (s *service) DeleteAllCovers(ctx context.Context, albumID uuid.UUID) error {
	covers, err := s.repository.ListCoversByAlbum(ctx, albumID)
	if err != nil {
		return &CoverError{AlbumID: albumID, Op: "delete_all", Err: err}
	}

	unlock := s.albums.Lock(albumID)
	defer unlock()

	for _, cover := range covers {
		if err := s.store.Delete(ctx, cover.ObjectKey); err != nil {
			s.logger.Error("cascade blob delete failed",
				"album_id", albumID, "cover_id", cover.ID, "object_key", cover.ObjectKey, "error", err)
			continue
		}
		if err := s.repository.DeleteCover(ctx, cover.ID); err != nil {
			s.logger.Error("cascade record delete failed",
				"album_id", albumID, "cover_id", cover.ID, "error", err)
		}
	}

	return nil
}
