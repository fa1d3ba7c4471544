package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default limits for cover uploads.
const (
	DefaultMaxUploadSize      = 10 << 20 // 10 MiB
	DefaultAllowedContentType = "image/"
	DefaultPresignExpiry      = 7 * 24 * time.Hour
)

// service implements the Service interface
type service struct {
	repository Repository
	store      BlobStore
	notifier   Notifier
	logger     *slog.Logger

	maxUploadSize      int64
	allowedContentType string
	presignExpiry      time.Duration

	// albums serializes primary-flag mutations per album.
	albums *keyMutex

	bucketMu sync.Mutex
	bucketOK bool
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the object-store gateway for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithNotifier sets the change notifier for the service
func WithNotifier(notifier Notifier) Option {
	return func(s *service) {
		s.notifier = notifier
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithMaxUploadSize sets the maximum accepted cover size in bytes
func WithMaxUploadSize(bytes int64) Option {
	return func(s *service) {
		if bytes > 0 {
			s.maxUploadSize = bytes
		}
	}
}

// WithAllowedContentType sets the content-type prefix accepted for
// cover uploads
func WithAllowedContentType(prefix string) Option {
	return func(s *service) {
		if prefix != "" {
			s.allowedContentType = prefix
		}
	}
}

// WithPresignExpiry sets the validity window for freshly minted access
// URLs
func WithPresignExpiry(expiry time.Duration) Option {
	return func(s *service) {
		if expiry > 0 {
			s.presignExpiry = expiry
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		maxUploadSize:      DefaultMaxUploadSize,
		allowedContentType: DefaultAllowedContentType,
		presignExpiry:      DefaultPresignExpiry,
		albums:             newKeyMutex(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.notifier == nil {
		s.notifier = NewNoopNotifier()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// ensureBucket provisions the storage container before the first write.
// Failures are not cached so a recovered store is retried on the next
// write.
func (s *service) ensureBucket(ctx context.Context) error {
	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()

	if s.bucketOK {
		return nil
	}
	if err := s.store.EnsureBucket(ctx); err != nil {
		return err
	}
	s.bucketOK = true
	return nil
}

// Album operations

func (s *service) CreateAlbum(ctx context.Context, req CreateAlbumRequest) (*Album, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	now := time.Now().UTC()
	album := &Album{
		ID:          uuid.New(),
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		ArtistIDs:   req.ArtistIDs,
		CreatedAt:   now,
	}

	// The creation notification must not reach subscribers unless the
	// write commits, so it is staged and settled with the transaction
	// outcome.
	staged, settle := s.notifier.Stage(ctx)
	err := s.repository.InTx(staged, func(ctx context.Context) error {
		for _, artistID := range req.ArtistIDs {
			if _, err := s.repository.GetArtist(ctx, artistID); err != nil {
				return err
			}
		}
		if err := s.repository.CreateAlbum(ctx, album); err != nil {
			return err
		}
		s.notifier.Announce(ctx, Event{
			Type:       EventAlbumCreated,
			AlbumID:    album.ID,
			Title:      album.Title,
			Message:    "new album created: " + album.Title,
			OccurredAt: now,
		})
		return nil
	})
	settle(err == nil)
	if err != nil {
		return nil, err
	}

	return album, nil
}

func (s *service) GetAlbum(ctx context.Context, id uuid.UUID) (*Album, error) {
	return s.repository.GetAlbum(ctx, id)
}

func (s *service) UpdateAlbum(ctx context.Context, req UpdateAlbumRequest) (*Album, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	album, err := s.repository.GetAlbum(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	album.Title = req.Title
	album.ReleaseYear = req.ReleaseYear
	if err := s.repository.UpdateAlbum(ctx, album); err != nil {
		return nil, err
	}

	return album, nil
}

func (s *service) DeleteAlbum(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repository.GetAlbum(ctx, id); err != nil {
		return err
	}

	// Covers are lifetime-bound to the album: remove blobs and records
	// before the album row goes away.
	if err := s.DeleteAllCovers(ctx, id); err != nil {
		return err
	}

	return s.repository.DeleteAlbum(ctx, id)
}

func (s *service) ListAlbums(ctx context.Context) ([]*Album, error) {
	return s.repository.ListAlbums(ctx)
}

func (s *service) AddArtistToAlbum(ctx context.Context, albumID, artistID uuid.UUID) error {
	if _, err := s.repository.GetAlbum(ctx, albumID); err != nil {
		return err
	}
	if _, err := s.repository.GetArtist(ctx, artistID); err != nil {
		return err
	}
	return s.repository.AddAlbumArtist(ctx, albumID, artistID)
}

func (s *service) RemoveArtistFromAlbum(ctx context.Context, albumID, artistID uuid.UUID) error {
	if _, err := s.repository.GetAlbum(ctx, albumID); err != nil {
		return err
	}
	if _, err := s.repository.GetArtist(ctx, artistID); err != nil {
		return err
	}
	return s.repository.RemoveAlbumArtist(ctx, albumID, artistID)
}

// Artist operations

func (s *service) CreateArtist(ctx context.Context, req CreateArtistRequest) (*Artist, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	artistType := req.Type
	if artistType == "" {
		artistType = ArtistTypeSolo
	}
	if artistType != ArtistTypeSolo && artistType != ArtistTypeBand {
		return nil, fmt.Errorf("%w: unknown artist type %q", ErrInvalidInput, req.Type)
	}

	artist := &Artist{
		ID:        uuid.New(),
		Name:      req.Name,
		Type:      artistType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repository.CreateArtist(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

func (s *service) GetArtist(ctx context.Context, id uuid.UUID) (*Artist, error) {
	return s.repository.GetArtist(ctx, id)
}

func (s *service) UpdateArtist(ctx context.Context, req UpdateArtistRequest) (*Artist, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	artist, err := s.repository.GetArtist(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	artist.Name = req.Name
	if req.Type != "" {
		if req.Type != ArtistTypeSolo && req.Type != ArtistTypeBand {
			return nil, fmt.Errorf("%w: unknown artist type %q", ErrInvalidInput, req.Type)
		}
		artist.Type = req.Type
	}
	if err := s.repository.UpdateArtist(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

func (s *service) DeleteArtist(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repository.GetArtist(ctx, id); err != nil {
		return err
	}
	return s.repository.DeleteArtist(ctx, id)
}

func (s *service) ListArtists(ctx context.Context) ([]*Artist, error) {
	return s.repository.ListArtists(ctx)
}

// Region operations

func (s *service) UpsertRegion(ctx context.Context, req UpsertRegionRequest) (*Region, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	region := &Region{
		ID:        req.ID,
		Name:      req.Name,
		Active:    req.Active,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repository.UpsertRegion(ctx, region); err != nil {
		return nil, err
	}
	return region, nil
}

func (s *service) GetRegion(ctx context.Context, id int) (*Region, error) {
	return s.repository.GetRegion(ctx, id)
}

func (s *service) DeleteRegion(ctx context.Context, id int) error {
	if _, err := s.repository.GetRegion(ctx, id); err != nil {
		return err
	}
	return s.repository.DeleteRegion(ctx, id)
}

func (s *service) ListRegions(ctx context.Context) ([]*Region, error) {
	return s.repository.ListRegions(ctx)
}
