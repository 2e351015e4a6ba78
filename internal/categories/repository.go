package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusevents/campusevents/internal/platform/db"
)

// Repository abstracts category persistence.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const categoryColumns = `id, name, slug, color_class, text_color_class, icon, description, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ColorClass, &c.TextColorClass, &c.Icon, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	return scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, c Category) (Category, error) {
	created, err := scanCategory(r.db.QueryRow(ctx, `INSERT INTO categories
(name, slug, color_class, text_color_class, icon, description, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+categoryColumns,
		c.Name, c.Slug, c.ColorClass, c.TextColorClass, c.Icon, c.Description, c.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, ErrSlugTaken
		}
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, c Category) (Category, error) {
	updated, err := scanCategory(r.db.QueryRow(ctx, `UPDATE categories
SET name = $2, slug = $3, color_class = $4, text_color_class = $5, icon = $6, description = $7,
    is_active = $8, updated_at = NOW()
WHERE id = $1 RETURNING `+categoryColumns,
		c.ID, c.Name, c.Slug, c.ColorClass, c.TextColorClass, c.Icon, c.Description, c.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, ErrSlugTaken
		}
		return Category{}, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
