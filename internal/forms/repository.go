package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusevents/campusevents/internal/platform/db"
	"github.com/campusevents/campusevents/internal/shared"
)

// ApprovalModule tags application entries in the approvals table.
const ApprovalModule = "applications"

// Repository abstracts form and application persistence. Transition must be
// atomic: it only succeeds while the stored status still equals from.
type Repository interface {
	InsertForm(ctx context.Context, f Form) (Form, error)
	GetForm(ctx context.Context, id int64) (Form, error)
	UpdateForm(ctx context.Context, f Form) (Form, error)
	DeleteForm(ctx context.Context, id int64) error
	ListForms(ctx context.Context, clubID int64, activeOnly bool, limit, offset int) ([]Form, int, error)

	InsertApplication(ctx context.Context, a Application) (Application, error)
	GetApplication(ctx context.Context, id int64) (Application, error)
	ListApplications(ctx context.Context, formID int64, limit, offset int) ([]Application, int, error)
	ListByUser(ctx context.Context, userID int64) ([]Application, error)
	Transition(ctx context.Context, next Application, from Status) (Application, error)
	History(ctx context.Context, id int64) ([]shared.ApprovalLog, error)
}

// PgRepository provides PostgreSQL backed persistence.
type PgRepository struct {
	pool      *pgxpool.Pool
	approvals *shared.ApprovalRecorder
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool, approvals: shared.NewApprovalRecorder(pool)}
}

const formColumns = `id, club_id, name, description, fields_json, is_active, created_at, updated_at`

func scanForm(row pgx.Row) (Form, error) {
	var f Form
	var fields []byte
	err := row.Scan(&f.ID, &f.ClubID, &f.Name, &f.Description, &fields, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Form{}, ErrFormNotFound
	}
	if err != nil {
		return Form{}, err
	}
	if err := json.Unmarshal(fields, &f.Fields); err != nil {
		return Form{}, fmt.Errorf("decode form %d fields: %w", f.ID, err)
	}
	return f, nil
}

// InsertForm stores a new form.
func (r *PgRepository) InsertForm(ctx context.Context, f Form) (Form, error) {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return Form{}, err
	}
	return scanForm(r.pool.QueryRow(ctx, `INSERT INTO forms (club_id, name, description, fields_json, is_active)
VALUES ($1, $2, $3, $4, $5) RETURNING `+formColumns, f.ClubID, f.Name, f.Description, fields, f.IsActive))
}

// GetForm loads a form by id.
func (r *PgRepository) GetForm(ctx context.Context, id int64) (Form, error) {
	return scanForm(r.pool.QueryRow(ctx, `SELECT `+formColumns+` FROM forms WHERE id = $1`, id))
}

// UpdateForm overwrites the editable columns of a form.
func (r *PgRepository) UpdateForm(ctx context.Context, f Form) (Form, error) {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return Form{}, err
	}
	return scanForm(r.pool.QueryRow(ctx, `UPDATE forms
SET name = $2, description = $3, fields_json = $4, is_active = $5, updated_at = NOW()
WHERE id = $1 RETURNING `+formColumns, f.ID, f.Name, f.Description, fields, f.IsActive))
}

// DeleteForm removes a form together with its applications.
func (r *PgRepository) DeleteForm(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFormNotFound
	}
	return nil
}

// ListForms returns a page of the club's forms newest first.
func (r *PgRepository) ListForms(ctx context.Context, clubID int64, activeOnly bool, limit, offset int) ([]Form, int, error) {
	where := ` WHERE club_id = $1`
	if activeOnly {
		where += ` AND is_active`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM forms`+where, clubID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+formColumns+` FROM forms`+where+`
ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, clubID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

const applicationColumns = `a.id, a.form_id, f.club_id, a.user_id, a.status, a.data_json,
a.submitted_at, a.reviewed_at, a.reviewer_id`

const applicationFrom = ` FROM applications a JOIN forms f ON f.id = a.form_id`

func scanApplication(row pgx.Row) (Application, error) {
	var a Application
	var status string
	var data []byte
	err := row.Scan(&a.ID, &a.FormID, &a.ClubID, &a.UserID, &status, &data, &a.SubmittedAt, &a.ReviewedAt, &a.ReviewerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrApplicationNotFound
	}
	if err != nil {
		return Application{}, err
	}
	a.Status = Status(status)
	if err := json.Unmarshal(data, &a.Data); err != nil {
		return Application{}, fmt.Errorf("decode application %d data: %w", a.ID, err)
	}
	return a, nil
}

func collectApplications(rows pgx.Rows) ([]Application, error) {
	defer rows.Close()
	out := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertApplication stores a submitted application and its history entry in
// one transaction.
func (r *PgRepository) InsertApplication(ctx context.Context, a Application) (Application, error) {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return Application{}, err
	}
	created := a
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO applications (form_id, user_id, status, data_json, submitted_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, a.FormID, a.UserID, string(a.Status), data, a.SubmittedAt).Scan(&created.ID)
		if db.IsForeignKeyViolation(err) {
			return ErrFormNotFound
		}
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return r.approvals.WithQuerier(tx).Record(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   created.ID,
			ActorID: a.UserID,
			Action:  shared.ApprovalSubmit,
			At:      a.SubmittedAt,
		})
	})
	if err != nil {
		return Application{}, err
	}
	return created, nil
}

// GetApplication loads an application by id.
func (r *PgRepository) GetApplication(ctx context.Context, id int64) (Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, `SELECT `+applicationColumns+applicationFrom+` WHERE a.id = $1`, id))
}

// ListApplications returns a page of a form's applications newest first.
func (r *PgRepository) ListApplications(ctx context.Context, formID int64, limit, offset int) ([]Application, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE form_id = $1`, formID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+applicationFrom+`
WHERE a.form_id = $1 ORDER BY a.submitted_at DESC, a.id DESC LIMIT $2 OFFSET $3`, formID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	apps, err := collectApplications(rows)
	return apps, total, err
}

// ListByUser returns every application the user submitted, newest first.
func (r *PgRepository) ListByUser(ctx context.Context, userID int64) ([]Application, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+applicationFrom+`
WHERE a.user_id = $1 ORDER BY a.submitted_at DESC, a.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func approvalAction(s Status) shared.ApprovalAction {
	switch s {
	case StatusAccepted:
		return shared.ApprovalApprove
	case StatusRejected:
		return shared.ApprovalReject
	default:
		return shared.ApprovalReview
	}
}

// Transition persists a status change with a compare-and-set on from.
func (r *PgRepository) Transition(ctx context.Context, next Application, from Status) (Application, error) {
	if next.ReviewerID == nil || next.ReviewedAt == nil {
		return Application{}, errors.New("transition requires a reviewer")
	}
	err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE applications
SET status = $2, reviewed_at = $3, reviewer_id = $4
WHERE id = $1 AND status = $5`, next.ID, string(next.Status), next.ReviewedAt, next.ReviewerID, string(from))
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return r.missOrConflict(ctx, tx, next.ID)
		}
		return r.approvals.WithQuerier(tx).Record(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   next.ID,
			ActorID: *next.ReviewerID,
			Action:  approvalAction(next.Status),
			Note:    string(next.Status),
			At:      *next.ReviewedAt,
		})
	})
	if db.IsSerializationFailure(err) {
		return Application{}, ErrInvalidTransition
	}
	if err != nil {
		return Application{}, err
	}
	return next, nil
}

func (r *PgRepository) missOrConflict(ctx context.Context, tx pgx.Tx, id int64) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrApplicationNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: application %d is %s", ErrInvalidTransition, id, status)
}

// History returns the review trail of an application.
func (r *PgRepository) History(ctx context.Context, id int64) ([]shared.ApprovalLog, error) {
	return r.approvals.List(ctx, ApprovalModule, id)
}
