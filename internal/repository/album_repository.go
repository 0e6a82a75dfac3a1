package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// AlbumRepository encapsulates album persistence.
type AlbumRepository interface {
	Create(ctx context.Context, album *domain.Album) error
	GetByID(ctx context.Context, id int64) (*domain.Album, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Album, error)
	Update(ctx context.Context, album *domain.Album) error
	Delete(ctx context.Context, id int64) error
	SetShareToken(ctx context.Context, id int64, token string, replace bool) (string, error)
}

type albumRepository struct {
	pool *pgxpool.Pool
}

// NewAlbumRepository instantiates repository.
func NewAlbumRepository(pool *pgxpool.Pool) AlbumRepository {
	return &albumRepository{pool: pool}
}

const albumColumns = `id, event_id, name, description, owner_id, visibility, share_token, created_at`

func (r *albumRepository) Create(ctx context.Context, album *domain.Album) error {
	const query = `
        INSERT INTO albums (event_id, name, description, owner_id, visibility)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		album.EventID,
		album.Name,
		album.Description,
		album.OwnerID,
		album.Visibility,
	).Scan(&album.ID, &album.CreatedAt)
	return translate(err)
}

func (r *albumRepository) GetByID(ctx context.Context, id int64) (*domain.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE id=$1`
	album, err := scanAlbum(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return album, nil
}

func (r *albumRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE event_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, album)
	}
	return result, rows.Err()
}

func (r *albumRepository) Update(ctx context.Context, album *domain.Album) error {
	const query = `UPDATE albums SET name=$1, description=$2, visibility=$3 WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		album.Name,
		album.Description,
		album.Visibility,
		album.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *albumRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM albums WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *albumRepository) SetShareToken(ctx context.Context, id int64, token string, replace bool) (string, error) {
	query := `UPDATE albums SET share_token=COALESCE(share_token, $2) WHERE id=$1 RETURNING share_token`
	if replace {
		query = `UPDATE albums SET share_token=$2 WHERE id=$1 RETURNING share_token`
	}
	var stored string
	if err := r.pool.QueryRow(ctx, query, id, token).Scan(&stored); err != nil {
		return "", translate(err)
	}
	return stored, nil
}

func scanAlbum(row pgx.Row) (*domain.Album, error) {
	var album domain.Album
	if err := row.Scan(
		&album.ID,
		&album.EventID,
		&album.Name,
		&album.Description,
		&album.OwnerID,
		&album.Visibility,
		&album.ShareToken,
		&album.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &album, nil
}
