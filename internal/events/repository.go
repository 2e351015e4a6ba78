package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusevents/campusevents/internal/platform/db"
	"github.com/campusevents/campusevents/internal/shared"
)

// Repository abstracts event persistence.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Event, int, error)
	Get(ctx context.Context, id int64) (Event, error)
	GetBySource(ctx context.Context, requestID int64) (Event, error)
	Create(ctx context.Context, e Event) (Event, error)
	Update(ctx context.Context, e Event) (Event, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const eventColumns = `id, title, description, starts_at, ends_at, location, organizer, image_url,
latitude, longitude, address, requires_registration, registration_link, category_id, club_id,
source_request_id, is_active, is_featured, created_at, updated_at`

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.Location, &e.Organizer,
		&e.ImageURL, &e.Latitude, &e.Longitude, &e.Address, &e.RequiresRegistration, &e.RegistrationLink,
		&e.CategoryID, &e.ClubID, &e.SourceRequestID, &e.IsActive, &e.IsFeatured, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	return e, err
}

func whereClause(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.CategoryID != nil {
		add("category_id = ?", *f.CategoryID)
	}
	if f.ClubID != nil {
		add("club_id = ?", *f.ClubID)
	}
	if f.Featured != nil {
		add("is_featured = ?", *f.Featured)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(title ILIKE ? OR description ILIKE ? OR location ILIKE ? OR organizer ILIKE ?)", "%"+s+"%")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repository) List(ctx context.Context, f Filter) ([]Event, int, error) {
	where, args := whereClause(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY starts_at, id`
	if f.Limit > 0 {
		offset := shared.NewPagination(f.Page, f.Limit, 0).Offset()
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Event, error) {
	return scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetBySource loads the event published from a content request.
func (r *repository) GetBySource(ctx context.Context, requestID int64) (Event, error) {
	return scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE source_request_id = $1`, requestID))
}

// Create inserts an event. A second event for the same source request is
// rejected by the unique index and reported as ErrAlreadyPublished.
func (r *repository) Create(ctx context.Context, e Event) (Event, error) {
	created, err := scanEvent(r.db.QueryRow(ctx, `INSERT INTO events
(title, description, starts_at, ends_at, location, organizer, image_url, latitude, longitude, address,
 requires_registration, registration_link, category_id, club_id, source_request_id, is_active, is_featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING `+eventColumns,
		e.Title, e.Description, e.StartsAt, e.EndsAt, e.Location, e.Organizer, e.ImageURL, e.Latitude,
		e.Longitude, e.Address, e.RequiresRegistration, e.RegistrationLink, e.CategoryID, e.ClubID,
		e.SourceRequestID, e.IsActive, e.IsFeatured))
	if db.IsUniqueViolation(err) {
		return Event{}, ErrAlreadyPublished
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, e Event) (Event, error) {
	return scanEvent(r.db.QueryRow(ctx, `UPDATE events SET
title = $2, description = $3, starts_at = $4, ends_at = $5, location = $6, organizer = $7,
image_url = $8, latitude = $9, longitude = $10, address = $11, requires_registration = $12,
registration_link = $13, category_id = $14, is_active = $15, is_featured = $16, updated_at = NOW()
WHERE id = $1 RETURNING `+eventColumns,
		e.ID, e.Title, e.Description, e.StartsAt, e.EndsAt, e.Location, e.Organizer, e.ImageURL,
		e.Latitude, e.Longitude, e.Address, e.RequiresRegistration, e.RegistrationLink, e.CategoryID,
		e.IsActive, e.IsFeatured))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
