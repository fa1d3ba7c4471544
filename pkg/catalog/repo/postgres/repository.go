package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/discograf/discograf/pkg/catalog"
)

// DBTX is an interface that allows us to use either the connection pool
// or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements catalog.Repository using PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) catalog.Repository {
	return &Repository{pool: pool}
}

type txKey struct{}

// db returns the transaction bound to ctx by InTx, or the pool.
func (r *Repository) db(ctx context.Context) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

// InTx runs fn inside a single transaction. Nested calls join the
// transaction already bound to ctx.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "artist") {
				return fmt.Errorf("artist already exists")
			}
			if strings.Contains(pgErr.ConstraintName, "cover") {
				return fmt.Errorf("cover already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Album operations

func (r *Repository) CreateAlbum(ctx context.Context, album *catalog.Album) error {
	query := `
		INSERT INTO album (id, title, release_year, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db(ctx).Exec(ctx, query,
		album.ID, album.Title, album.ReleaseYear, album.CreatedAt)
	if err != nil {
		return handlePostgresError("create album", err)
	}

	for _, artistID := range album.ArtistIDs {
		if err := r.AddAlbumArtist(ctx, album.ID, artistID); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) GetAlbum(ctx context.Context, id uuid.UUID) (*catalog.Album, error) {
	query := `
		SELECT id, title, release_year, created_at
		FROM album WHERE id = $1`

	var album catalog.Album
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&album.ID, &album.Title, &album.ReleaseYear, &album.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrAlbumNotFound
		}
		return nil, handlePostgresError("get album", err)
	}

	artistIDs, err := r.albumArtistIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	album.ArtistIDs = artistIDs

	return &album, nil
}

func (r *Repository) albumArtistIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT artist_id FROM artist_album WHERE album_id = $1 ORDER BY artist_id`, albumID)
	if err != nil {
		return nil, handlePostgresError("list album artists", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, handlePostgresError("scan album artist", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) UpdateAlbum(ctx context.Context, album *catalog.Album) error {
	query := `UPDATE album SET title = $2, release_year = $3 WHERE id = $1`

	tag, err := r.db(ctx).Exec(ctx, query, album.ID, album.Title, album.ReleaseYear)
	if err != nil {
		return handlePostgresError("update album", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrAlbumNotFound
	}
	return nil
}

func (r *Repository) DeleteAlbum(ctx context.Context, id uuid.UUID) error {
	// ON DELETE CASCADE removes artist links and cover records; blob
	// cleanup happens in the service before this is called.
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM album WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete album", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrAlbumNotFound
	}
	return nil
}

func (r *Repository) ListAlbums(ctx context.Context) ([]*catalog.Album, error) {
	query := `
		SELECT id, title, release_year, created_at
		FROM album ORDER BY created_at DESC`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list albums", err)
	}
	defer rows.Close()

	var albums []*catalog.Album
	for rows.Next() {
		var album catalog.Album
		if err := rows.Scan(&album.ID, &album.Title, &album.ReleaseYear, &album.CreatedAt); err != nil {
			return nil, handlePostgresError("scan album", err)
		}
		albums = append(albums, &album)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("iterate album rows", err)
	}

	for _, album := range albums {
		artistIDs, err := r.albumArtistIDs(ctx, album.ID)
		if err != nil {
			return nil, err
		}
		album.ArtistIDs = artistIDs
	}

	return albums, nil
}

func (r *Repository) AddAlbumArtist(ctx context.Context, albumID, artistID uuid.UUID) error {
	query := `
		INSERT INTO artist_album (album_id, artist_id)
		VALUES ($1, $2)
		ON CONFLICT (album_id, artist_id) DO NOTHING`

	if _, err := r.db(ctx).Exec(ctx, query, albumID, artistID); err != nil {
		return handlePostgresError("add album artist", err)
	}
	return nil
}

func (r *Repository) RemoveAlbumArtist(ctx context.Context, albumID, artistID uuid.UUID) error {
	query := `DELETE FROM artist_album WHERE album_id = $1 AND artist_id = $2`

	if _, err := r.db(ctx).Exec(ctx, query, albumID, artistID); err != nil {
		return handlePostgresError("remove album artist", err)
	}
	return nil
}

// Artist operations

func (r *Repository) CreateArtist(ctx context.Context, artist *catalog.Artist) error {
	query := `
		INSERT INTO artist (id, name, type, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db(ctx).Exec(ctx, query,
		artist.ID, artist.Name, artist.Type, artist.CreatedAt)
	if err != nil {
		return handlePostgresError("create artist", err)
	}
	return nil
}

func (r *Repository) GetArtist(ctx context.Context, id uuid.UUID) (*catalog.Artist, error) {
	query := `SELECT id, name, type, created_at FROM artist WHERE id = $1`

	var artist catalog.Artist
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&artist.ID, &artist.Name, &artist.Type, &artist.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrArtistNotFound
		}
		return nil, handlePostgresError("get artist", err)
	}
	return &artist, nil
}

func (r *Repository) UpdateArtist(ctx context.Context, artist *catalog.Artist) error {
	query := `UPDATE artist SET name = $2, type = $3 WHERE id = $1`

	tag, err := r.db(ctx).Exec(ctx, query, artist.ID, artist.Name, artist.Type)
	if err != nil {
		return handlePostgresError("update artist", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrArtistNotFound
	}
	return nil
}

func (r *Repository) DeleteArtist(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM artist WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete artist", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrArtistNotFound
	}
	return nil
}

func (r *Repository) ListArtists(ctx context.Context) ([]*catalog.Artist, error) {
	query := `SELECT id, name, type, created_at FROM artist ORDER BY name`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list artists", err)
	}
	defer rows.Close()

	var artists []*catalog.Artist
	for rows.Next() {
		var artist catalog.Artist
		if err := rows.Scan(&artist.ID, &artist.Name, &artist.Type, &artist.CreatedAt); err != nil {
			return nil, handlePostgresError("scan artist", err)
		}
		artists = append(artists, &artist)
	}
	return artists, rows.Err()
}

// Region operations

func (r *Repository) UpsertRegion(ctx context.Context, region *catalog.Region) error {
	query := `
		INSERT INTO regional (id, name, active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db(ctx).Exec(ctx, query,
		region.ID, region.Name, region.Active, region.UpdatedAt)
	if err != nil {
		return handlePostgresError("upsert region", err)
	}
	return nil
}

func (r *Repository) GetRegion(ctx context.Context, id int) (*catalog.Region, error) {
	query := `SELECT id, name, active, updated_at FROM regional WHERE id = $1`

	var region catalog.Region
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&region.ID, &region.Name, &region.Active, &region.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrRegionNotFound
		}
		return nil, handlePostgresError("get region", err)
	}
	return &region, nil
}

func (r *Repository) DeleteRegion(ctx context.Context, id int) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM regional WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete region", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrRegionNotFound
	}
	return nil
}

func (r *Repository) ListRegions(ctx context.Context) ([]*catalog.Region, error) {
	query := `SELECT id, name, active, updated_at FROM regional ORDER BY id`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list regions", err)
	}
	defer rows.Close()

	var regions []*catalog.Region
	for rows.Next() {
		var region catalog.Region
		if err := rows.Scan(&region.ID, &region.Name, &region.Active, &region.UpdatedAt); err != nil {
			return nil, handlePostgresError("scan region", err)
		}
		regions = append(regions, &region)
	}
	return regions, rows.Err()
}

// Cover operations

func (r *Repository) CreateCover(ctx context.Context, cover *catalog.Cover) error {
	query := `
		INSERT INTO album_cover (
			id, album_id, file_name, object_key, content_type,
			file_size, is_primary, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db(ctx).Exec(ctx, query,
		cover.ID, cover.AlbumID, cover.FileName, cover.ObjectKey,
		cover.ContentType, cover.FileSize, cover.IsPrimary,
		cover.CreatedAt, cover.UpdatedAt)
	if err != nil {
		return handlePostgresError("create cover", err)
	}
	return nil
}

func (r *Repository) GetCover(ctx context.Context, id uuid.UUID) (*catalog.Cover, error) {
	query := `
		SELECT id, album_id, file_name, object_key, content_type,
		       file_size, is_primary, created_at, updated_at
		FROM album_cover WHERE id = $1`

	var cover catalog.Cover
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&cover.ID, &cover.AlbumID, &cover.FileName, &cover.ObjectKey,
		&cover.ContentType, &cover.FileSize, &cover.IsPrimary,
		&cover.CreatedAt, &cover.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCoverNotFound
		}
		return nil, handlePostgresError("get cover", err)
	}
	return &cover, nil
}

func (r *Repository) ListCoversByAlbum(ctx context.Context, albumID uuid.UUID) ([]*catalog.Cover, error) {
	query := `
		SELECT id, album_id, file_name, object_key, content_type,
		       file_size, is_primary, created_at, updated_at
		FROM album_cover WHERE album_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db(ctx).Query(ctx, query, albumID)
	if err != nil {
		return nil, handlePostgresError("list covers", err)
	}
	defer rows.Close()

	covers := []*catalog.Cover{}
	for rows.Next() {
		var cover catalog.Cover
		if err := rows.Scan(
			&cover.ID, &cover.AlbumID, &cover.FileName, &cover.ObjectKey,
			&cover.ContentType, &cover.FileSize, &cover.IsPrimary,
			&cover.CreatedAt, &cover.UpdatedAt); err != nil {
			return nil, handlePostgresError("scan cover", err)
		}
		covers = append(covers, &cover)
	}
	return covers, rows.Err()
}

func (r *Repository) CountCoversByAlbum(ctx context.Context, albumID uuid.UUID) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM album_cover WHERE album_id = $1`, albumID).Scan(&count)
	if err != nil {
		return 0, handlePostgresError("count covers", err)
	}
	return count, nil
}

func (r *Repository) GetPrimaryCover(ctx context.Context, albumID uuid.UUID) (*catalog.Cover, error) {
	query := `
		SELECT id, album_id, file_name, object_key, content_type,
		       file_size, is_primary, created_at, updated_at
		FROM album_cover WHERE album_id = $1 AND is_primary`

	var cover catalog.Cover
	err := r.db(ctx).QueryRow(ctx, query, albumID).Scan(
		&cover.ID, &cover.AlbumID, &cover.FileName, &cover.ObjectKey,
		&cover.ContentType, &cover.FileSize, &cover.IsPrimary,
		&cover.CreatedAt, &cover.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrPrimaryCoverNotFound
		}
		return nil, handlePostgresError("get primary cover", err)
	}
	return &cover, nil
}

// SetPrimaryCover performs the swap as one conditional UPDATE: the
// target gains the flag and every sibling loses it in the same
// statement, so concurrent swaps serialize on the row locks and can
// never commit two primaries. The EXISTS guard keeps a swap to a
// nonexistent cover from clearing the current primary.
func (r *Repository) SetPrimaryCover(ctx context.Context, albumID, coverID uuid.UUID) error {
	query := `
		UPDATE album_cover
		SET is_primary = (id = $2), updated_at = NOW()
		WHERE album_id = $1
		  AND EXISTS (
			SELECT 1 FROM album_cover WHERE id = $2 AND album_id = $1
		  )`

	tag, err := r.db(ctx).Exec(ctx, query, albumID, coverID)
	if err != nil {
		return handlePostgresError("set primary cover", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCoverNotFound
	}
	return nil
}

func (r *Repository) DeleteCover(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM album_cover WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete cover", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCoverNotFound
	}
	return nil
}
