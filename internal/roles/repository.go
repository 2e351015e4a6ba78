package roles

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusevents/campusevents/internal/platform/db"
)

// Repository abstracts grant persistence.
type Repository interface {
	Insert(ctx context.Context, userID int64, kind Kind, clubID *int64) (Grant, error)
	Delete(ctx context.Context, grantID int64) error
	Get(ctx context.Context, grantID int64) (Grant, error)
	ListByUser(ctx context.Context, userID int64) ([]Grant, error)
	Exists(ctx context.Context, userID int64, kind Kind, clubID *int64) (bool, error)
}

// PgRepository provides PostgreSQL backed persistence.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const grantColumns = `id, user_id, role_type, club_id, granted_at`

func scanGrant(row pgx.Row) (Grant, error) {
	var g Grant
	var kind string
	if err := row.Scan(&g.ID, &g.UserID, &kind, &g.ClubID, &g.GrantedAt); err != nil {
		return Grant{}, err
	}
	g.Kind = Kind(kind)
	return g, nil
}

// Insert stores a new grant. The unique scope index turns a racing duplicate
// into ErrDuplicateGrant.
func (r *PgRepository) Insert(ctx context.Context, userID int64, kind Kind, clubID *int64) (Grant, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO user_roles (user_id, role_type, club_id)
VALUES ($1, $2, $3) RETURNING `+grantColumns, userID, string(kind), clubID)
	g, err := scanGrant(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Grant{}, ErrDuplicateGrant
		}
		return Grant{}, fmt.Errorf("insert grant: %w", err)
	}
	return g, nil
}

// Delete removes a grant. The super_admin rows are locked first so two
// concurrent revocations cannot both pass the last super_admin check.
func (r *PgRepository) Delete(ctx context.Context, grantID int64) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM user_roles WHERE role_type = $1 ORDER BY id FOR UPDATE`, string(KindSuperAdmin))
		if err != nil {
			return fmt.Errorf("lock super admins: %w", err)
		}
		supers, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("lock super admins: %w", err)
		}
		if len(supers) <= 1 && slices.Contains(supers, grantID) {
			return ErrLastSuperAdmin
		}
		tag, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE id = $1`, grantID)
		if err != nil {
			return fmt.Errorf("delete grant: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrGrantNotFound
		}
		return nil
	})
}

// Get loads a grant by id.
func (r *PgRepository) Get(ctx context.Context, grantID int64) (Grant, error) {
	g, err := scanGrant(r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM user_roles WHERE id = $1`, grantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, ErrGrantNotFound
	}
	return g, err
}

// ListByUser returns every grant held by the user.
func (r *PgRepository) ListByUser(ctx context.Context, userID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+grantColumns+` FROM user_roles WHERE user_id = $1 ORDER BY granted_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Exists reports whether an identical grant is already stored.
func (r *PgRepository) Exists(ctx context.Context, userID int64, kind Kind, clubID *int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM user_roles WHERE user_id = $1 AND role_type = $2 AND club_id IS NOT DISTINCT FROM $3)`,
		userID, string(kind), clubID).Scan(&exists)
	return exists, err
}
