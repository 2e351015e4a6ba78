package stories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository abstracts story persistence.
type Repository interface {
	List(ctx context.Context, liveAt *time.Time) ([]Story, error)
	Get(ctx context.Context, id int64) (Story, error)
	Create(ctx context.Context, s Story) (Story, error)
	Update(ctx context.Context, s Story) (Story, error)
	Delete(ctx context.Context, id int64) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const storyColumns = `id, title, image_url, link_url, order_index, is_active, created_at, expires_at`

func scanStory(row pgx.Row) (Story, error) {
	var s Story
	err := row.Scan(&s.ID, &s.Title, &s.ImageURL, &s.LinkURL, &s.OrderIndex, &s.IsActive, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Story{}, ErrNotFound
	}
	return s, err
}

// List returns stories by order_index, newest first within an index. A
// non-nil liveAt limits the result to stories shown at that instant.
func (r *repository) List(ctx context.Context, liveAt *time.Time) ([]Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories`
	var args []any
	if liveAt != nil {
		query += ` WHERE is_active AND expires_at > $1`
		args = append(args, *liveAt)
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY order_index, created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Story, error) {
	return scanStory(r.db.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, s Story) (Story, error) {
	return scanStory(r.db.QueryRow(ctx, `INSERT INTO stories (title, image_url, link_url, order_index, is_active, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+storyColumns,
		s.Title, s.ImageURL, s.LinkURL, s.OrderIndex, s.IsActive, s.CreatedAt, s.ExpiresAt))
}

func (r *repository) Update(ctx context.Context, s Story) (Story, error) {
	return scanStory(r.db.QueryRow(ctx, `UPDATE stories
SET title = $2, image_url = $3, link_url = $4, order_index = $5, is_active = $6, expires_at = $7
WHERE id = $1 RETURNING `+storyColumns,
		s.ID, s.Title, s.ImageURL, s.LinkURL, s.OrderIndex, s.IsActive, s.ExpiresAt))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE stories SET is_active = FALSE WHERE is_active AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
