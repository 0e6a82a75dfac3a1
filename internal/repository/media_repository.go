package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// MediaRepository encapsulates media persistence.
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	GetByID(ctx context.Context, id int64) (*domain.Media, error)
	// ListByAlbum pages newest first; a non-positive limit returns every item.
	ListByAlbum(ctx context.Context, albumID int64, limit, offset int) ([]*domain.Media, error)
	CountByAlbum(ctx context.Context, albumID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type mediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository instantiates repository.
func NewMediaRepository(pool *pgxpool.Pool) MediaRepository {
	return &mediaRepository{pool: pool}
}

const mediaColumns = `id, album_id, owner_id, file_url, thumbnail_url, media_type, content_type, size_bytes, uploaded_at`

func (r *mediaRepository) Create(ctx context.Context, media *domain.Media) error {
	const query = `
        INSERT INTO media (album_id, owner_id, file_url, thumbnail_url, media_type, content_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, uploaded_at`
	err := r.pool.QueryRow(ctx, query,
		media.AlbumID,
		media.OwnerID,
		media.FileURL,
		media.ThumbnailURL,
		media.MediaType,
		media.ContentType,
		media.SizeBytes,
	).Scan(&media.ID, &media.UploadedAt)
	return translate(err)
}

func (r *mediaRepository) GetByID(ctx context.Context, id int64) (*domain.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id=$1`
	media, err := scanMedia(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return media, nil
}

func (r *mediaRepository) ListByAlbum(ctx context.Context, albumID int64, limit, offset int) ([]*domain.Media, error) {
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM media WHERE album_id=$1 ORDER BY uploaded_at DESC, id DESC OFFSET %d`,
		mediaColumns, offset)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.pool.Query(ctx, query, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, media)
	}
	return result, rows.Err()
}

func (r *mediaRepository) CountByAlbum(ctx context.Context, albumID int64) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media WHERE album_id=$1`, albumID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *mediaRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM media WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMedia(row pgx.Row) (*domain.Media, error) {
	var media domain.Media
	if err := row.Scan(
		&media.ID,
		&media.AlbumID,
		&media.OwnerID,
		&media.FileURL,
		&media.ThumbnailURL,
		&media.MediaType,
		&media.ContentType,
		&media.SizeBytes,
		&media.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &media, nil
}
