package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every store the services depend on.
type Repositories struct {
	Users  UserRepository
	Events EventRepository
	Albums AlbumRepository
	Media  MediaRepository
}

// NewPostgresRepositories wires the pgx-backed stores.
func NewPostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:  NewUserRepository(pool),
		Events: NewEventRepository(pool),
		Albums: NewAlbumRepository(pool),
		Media:  NewMediaRepository(pool),
	}
}
