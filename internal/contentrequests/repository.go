package contentrequests

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusevents/campusevents/internal/platform/db"
	"github.com/campusevents/campusevents/internal/shared"
)

// ApprovalModule tags content request entries in the approvals table.
const ApprovalModule = "content_requests"

// Repository abstracts content request persistence. Transition must be
// atomic: it only succeeds while the stored request is still pending.
type Repository interface {
	Insert(ctx context.Context, req ContentRequest, actorID int64) (ContentRequest, error)
	Get(ctx context.Context, id int64) (ContentRequest, error)
	ListPending(ctx context.Context, clubIDs []int64) ([]ContentRequest, error)
	ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]ContentRequest, int, error)
	Transition(ctx context.Context, next ContentRequest) (ContentRequest, error)
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

const requestColumns = `id, club_id, event_data, status, submitted_at, reviewed_at, reviewer_id`

func scanRequest(row pgx.Row) (ContentRequest, error) {
	var req ContentRequest
	var status string
	var payload []byte
	if err := row.Scan(&req.ID, &req.ClubID, &payload, &status, &req.SubmittedAt, &req.ReviewedAt, &req.ReviewerID); err != nil {
		return ContentRequest{}, err
	}
	req.Payload = payload
	req.Status = Status(status)
	return req, nil
}

func collect(rows pgx.Rows) ([]ContentRequest, error) {
	defer rows.Close()
	out := []ContentRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Insert stores a new request and its submit history entry in one transaction.
func (r *PgRepository) Insert(ctx context.Context, req ContentRequest, actorID int64) (ContentRequest, error) {
	var created ContentRequest
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scanRequest(tx.QueryRow(ctx, `INSERT INTO content_requests (club_id, event_data, status, submitted_at)
VALUES ($1, $2, $3, $4) RETURNING `+requestColumns, req.ClubID, []byte(req.Payload), string(req.Status), req.SubmittedAt))
		if err != nil {
			return fmt.Errorf("insert content request: %w", err)
		}
		return r.approvals.WithQuerier(tx).Record(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   created.ID,
			ActorID: actorID,
			Action:  shared.ApprovalSubmit,
			At:      created.SubmittedAt,
		})
	})
	return created, err
}

// Get loads a request by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (ContentRequest, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM content_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ContentRequest{}, ErrNotFound
	}
	return req, err
}

// ListPending returns pending requests oldest first. A nil clubIDs lists
// every club.
func (r *PgRepository) ListPending(ctx context.Context, clubIDs []int64) ([]ContentRequest, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if clubIDs == nil {
		rows, err = r.pool.Query(ctx, `SELECT `+requestColumns+` FROM content_requests
WHERE status = 'pending' ORDER BY submitted_at ASC, id ASC`)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+requestColumns+` FROM content_requests
WHERE status = 'pending' AND club_id = ANY($1) ORDER BY submitted_at ASC, id ASC`, clubIDs)
	}
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByClub returns a page of the club's requests newest first, with the total count.
func (r *PgRepository) ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]ContentRequest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_requests WHERE club_id = $1`, clubID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM content_requests
WHERE club_id = $1 ORDER BY submitted_at DESC, id DESC LIMIT $2 OFFSET $3`, clubID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	reqs, err := collect(rows)
	return reqs, total, err
}

// Transition persists a reviewed request with a compare-and-set on the
// pending status. ReadCommitted lets a waiting writer re-check the predicate
// after the winner commits and see zero rows.
func (r *PgRepository) Transition(ctx context.Context, next ContentRequest) (ContentRequest, error) {
	if next.ReviewerID == nil {
		return ContentRequest{}, errors.New("transition requires a reviewer")
	}
	action := shared.ApprovalApprove
	if next.Status == StatusRejected {
		action = shared.ApprovalReject
	}
	var updated ContentRequest
	err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		updated, err = scanRequest(tx.QueryRow(ctx, `UPDATE content_requests
SET status = $2, reviewed_at = $3, reviewer_id = $4
WHERE id = $1 AND status = 'pending'
RETURNING `+requestColumns, next.ID, string(next.Status), next.ReviewedAt, next.ReviewerID))
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrConflict(ctx, tx, next.ID)
		}
		if err != nil {
			return fmt.Errorf("update content request: %w", err)
		}
		return r.approvals.WithQuerier(tx).Record(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   updated.ID,
			ActorID: *updated.ReviewerID,
			Action:  action,
			At:      *updated.ReviewedAt,
		})
	})
	if db.IsSerializationFailure(err) {
		return ContentRequest{}, ErrInvalidTransition
	}
	return updated, err
}

func (r *PgRepository) missOrConflict(ctx context.Context, tx pgx.Tx, id int64) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM content_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, id, status)
}

// History returns the approval log of a request.
func (r *PgRepository) History(ctx context.Context, id int64) ([]shared.ApprovalLog, error) {
	return r.approvals.List(ctx, ApprovalModule, id)
}
