package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// EventFilter narrows event listings by date.
type EventFilter struct {
	From *time.Time
	To   *time.Time
}

// EventRepository encapsulates event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id int64) error
	// SetShareToken stores token and returns the token now on record. Without replace an
	// existing token wins, so concurrent callers converge on one value.
	SetShareToken(ctx context.Context, id int64, token string, replace bool) (string, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventColumns = `id, title, description, event_date, location, owner_id, visibility, share_token, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (title, description, event_date, location, owner_id, visibility)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		event.Title,
		event.Description,
		event.EventDate,
		event.Location,
		event.OwnerID,
		event.Visibility,
	).Scan(&event.ID, &event.CreatedAt)
	return translate(err)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id=$1`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return event, nil
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("event_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("event_date <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY event_date DESC, id DESC`,
		eventColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events SET title=$1, description=$2, event_date=$3, location=$4, visibility=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		event.Title,
		event.Description,
		event.EventDate,
		event.Location,
		event.Visibility,
		event.ID,
	).Scan(&event.UpdatedAt)
	return translate(err)
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepository) SetShareToken(ctx context.Context, id int64, token string, replace bool) (string, error) {
	query := `UPDATE events SET share_token=COALESCE(share_token, $2) WHERE id=$1 RETURNING share_token`
	if replace {
		query = `UPDATE events SET share_token=$2, updated_at=NOW() WHERE id=$1 RETURNING share_token`
	}
	var stored string
	if err := r.pool.QueryRow(ctx, query, id, token).Scan(&stored); err != nil {
		return "", translate(err)
	}
	return stored, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.EventDate,
		&event.Location,
		&event.OwnerID,
		&event.Visibility,
		&event.ShareToken,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}
