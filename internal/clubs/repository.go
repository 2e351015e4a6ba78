package clubs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusevents/campusevents/internal/platform/db"
)

// Repository abstracts club persistence.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Club, int, error)
	Get(ctx context.Context, id int64) (Club, error)
	Create(ctx context.Context, club Club) (Club, error)
	Update(ctx context.Context, club Club) (Club, error)
	SetActive(ctx context.Context, id int64, active bool) error
	AddMember(ctx context.Context, m Member) (Member, error)
	RemoveMember(ctx context.Context, clubID, userID int64) (bool, error)
	ListMembers(ctx context.Context, clubID int64) ([]Member, error)
}

// PgRepository provides PostgreSQL backed persistence.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const clubColumns = `id, name, description, logo, contact_info, is_active, created_at, updated_at`

func scanClub(row pgx.Row) (Club, error) {
	var c Club
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Logo, &c.ContactInfo, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Club{}, ErrNotFound
	}
	return c, err
}

// List returns active clubs ordered by name.
func (r *PgRepository) List(ctx context.Context, limit, offset int) ([]Club, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clubs WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+clubColumns+` FROM clubs WHERE is_active
ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Club{}
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Get loads a club regardless of its active flag.
func (r *PgRepository) Get(ctx context.Context, id int64) (Club, error) {
	return scanClub(r.pool.QueryRow(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, id))
}

// Create inserts a club.
func (r *PgRepository) Create(ctx context.Context, club Club) (Club, error) {
	created, err := scanClub(r.pool.QueryRow(ctx, `INSERT INTO clubs (name, description, logo, contact_info, is_active)
VALUES ($1, $2, $3, $4, $5) RETURNING `+clubColumns,
		club.Name, club.Description, club.Logo, club.ContactInfo, club.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Club{}, ErrNameTaken
		}
		return Club{}, fmt.Errorf("insert club: %w", err)
	}
	return created, nil
}

// Update writes every mutable column of the club.
func (r *PgRepository) Update(ctx context.Context, club Club) (Club, error) {
	updated, err := scanClub(r.pool.QueryRow(ctx, `UPDATE clubs
SET name = $2, description = $3, logo = $4, contact_info = $5, is_active = $6, updated_at = NOW()
WHERE id = $1 RETURNING `+clubColumns,
		club.ID, club.Name, club.Description, club.Logo, club.ContactInfo, club.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Club{}, ErrNameTaken
		}
		return Club{}, err
	}
	return updated, nil
}

// SetActive flips the active flag.
func (r *PgRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clubs SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember inserts a membership row.
func (r *PgRepository) AddMember(ctx context.Context, m Member) (Member, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO club_members (club_id, user_id, role)
VALUES ($1, $2, $3) RETURNING id, joined_at`, m.ClubID, m.UserID, string(m.Role)).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Member{}, ErrAlreadyMember
		}
		return Member{}, fmt.Errorf("insert member: %w", err)
	}
	return m, nil
}

// RemoveMember deletes a membership and reports whether it existed.
func (r *PgRepository) RemoveMember(ctx context.Context, clubID, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM club_members WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListMembers returns the roster of a club by join date.
func (r *PgRepository) ListMembers(ctx context.Context, clubID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, club_id, user_id, role, joined_at FROM club_members
WHERE club_id = $1 ORDER BY joined_at, id`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Member{}
	for rows.Next() {
		var m Member
		var role string
		if err := rows.Scan(&m.ID, &m.ClubID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = MemberRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}
