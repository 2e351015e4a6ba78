package contentrequests

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/shared"
)

// ClubDirectory answers whether a club exists and accepts new activity.
type ClubDirectory interface {
	ClubActive(ctx context.Context, clubID int64) (bool, error)
}

// Service is the entry point of the workflow. Every operation authorizes the
// principal before touching the store.
type Service struct {
	repo  Repository
	clubs ClubDirectory
	now   func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository, clubs ClubDirectory) *Service {
	return &Service{repo: repo, clubs: clubs, now: time.Now}
}

// SubmitRequest files new content for clubID on behalf of the principal.
func (s *Service) SubmitRequest(ctx context.Context, p rbac.Principal, clubID int64, payload json.RawMessage) (ContentRequest, error) {
	if !rbac.CanManageClub(p.Grants, clubID) {
		return ContentRequest{}, ErrForbidden
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return ContentRequest{}, ErrInvalidPayload
	}
	active, err := s.clubs.ClubActive(ctx, clubID)
	if err != nil {
		return ContentRequest{}, fmt.Errorf("lookup club: %w", err)
	}
	if !active {
		return ContentRequest{}, ErrClubNotFound
	}
	return s.repo.Insert(ctx, Submit(clubID, payload, s.now()), p.ID)
}

// ListPending returns the pending requests the principal may review, oldest
// first. Principals without review authority get an empty list.
func (s *Service) ListPending(ctx context.Context, p rbac.Principal) ([]ContentRequest, error) {
	var scope []int64
	if !rbac.IsGlobalAdmin(p.Grants) {
		scope = rbac.ManagedClubs(p.Grants)
		if len(scope) == 0 {
			return []ContentRequest{}, nil
		}
	}
	pending, err := s.repo.ListPending(ctx, scope)
	if err != nil {
		return nil, err
	}
	visible := rbac.VisibleContentRequests(p.Grants, pending)
	out := visible[:0]
	for _, req := range visible {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

// Get returns a request the principal may review.
func (s *Service) Get(ctx context.Context, p rbac.Principal, id int64) (ContentRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return ContentRequest{}, err
	}
	if !rbac.CanReviewContentRequests(p.Grants, req.ClubID) {
		return ContentRequest{}, ErrForbidden
	}
	return req, nil
}

// ListForClub pages through every request of a club, newest first.
func (s *Service) ListForClub(ctx context.Context, p rbac.Principal, clubID int64, page, perPage int) (shared.Page[ContentRequest], error) {
	if !rbac.CanManageClub(p.Grants, clubID) {
		return shared.Page[ContentRequest]{}, ErrForbidden
	}
	meta := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListByClub(ctx, clubID, meta.PerPage, meta.Offset())
	if err != nil {
		return shared.Page[ContentRequest]{}, err
	}
	return shared.Page[ContentRequest]{
		Items:      items,
		Pagination: shared.NewPagination(meta.Page, meta.PerPage, total),
	}, nil
}

// History returns the review trail of a request.
func (s *Service) History(ctx context.Context, p rbac.Principal, id int64) ([]shared.ApprovalLog, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// Approve accepts a pending request.
func (s *Service) Approve(ctx context.Context, p rbac.Principal, id int64) (ContentRequest, error) {
	return s.review(ctx, p, id, ContentRequest.Approve)
}

// Reject declines a pending request.
func (s *Service) Reject(ctx context.Context, p rbac.Principal, id int64) (ContentRequest, error) {
	return s.review(ctx, p, id, ContentRequest.Reject)
}

func (s *Service) review(ctx context.Context, p rbac.Principal, id int64, transition func(ContentRequest, int64, time.Time) (ContentRequest, error)) (ContentRequest, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return ContentRequest{}, err
	}
	if !rbac.CanReviewContentRequests(p.Grants, current.ClubID) {
		return ContentRequest{}, ErrForbidden
	}
	next, err := transition(current, p.ID, s.now())
	if err != nil {
		return ContentRequest{}, err
	}
	return s.repo.Transition(ctx, next)
}
