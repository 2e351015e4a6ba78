package contentrequests

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/roles"
	"github.com/campusevents/campusevents/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]ContentRequest
	history  map[int64][]shared.ApprovalLog
	scopes   [][]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{requests: map[int64]ContentRequest{}, history: map[int64][]shared.ApprovalLog{}}
}

func (m *memoryRepo) Insert(_ context.Context, req ContentRequest, actorID int64) (ContentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = m.nextID
	m.requests[req.ID] = req
	m.history[req.ID] = append(m.history[req.ID], shared.ApprovalLog{RefID: req.ID, ActorID: actorID, Action: shared.ApprovalSubmit})
	return req, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (ContentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return ContentRequest{}, ErrNotFound
	}
	return req, nil
}

func (m *memoryRepo) ListPending(_ context.Context, clubIDs []int64) ([]ContentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes = append(m.scopes, clubIDs)
	var out []ContentRequest
	for _, req := range m.requests {
		if req.Status != StatusPending {
			continue
		}
		if clubIDs != nil && !contains(clubIDs, req.ClubID) {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) ListByClub(_ context.Context, clubID int64, limit, offset int) ([]ContentRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []ContentRequest
	for _, req := range m.requests {
		if req.ClubID == clubID {
			all = append(all, req)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset >= total {
		return []ContentRequest{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// Transition mirrors the store's compare-and-set on the pending status.
func (m *memoryRepo) Transition(_ context.Context, next ContentRequest) (ContentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[next.ID]
	if !ok {
		return ContentRequest{}, ErrNotFound
	}
	if current.Status != StatusPending {
		return ContentRequest{}, ErrInvalidTransition
	}
	m.requests[next.ID] = next
	return next, nil
}

func (m *memoryRepo) History(_ context.Context, id int64) ([]shared.ApprovalLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[id], nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type stubClubs map[int64]bool

func (s stubClubs) ClubActive(_ context.Context, id int64) (bool, error) {
	return s[id], nil
}

func clubPtr(id int64) *int64 { return &id }

var (
	adminP    = rbac.Principal{ID: 1, Grants: []roles.Grant{{Kind: roles.KindAdmin}}}
	manager5  = rbac.Principal{ID: 5, Grants: []roles.Grant{{Kind: roles.KindClubManager, ClubID: clubPtr(5)}}}
	manager7  = rbac.Principal{ID: 7, Grants: []roles.Grant{{Kind: roles.KindClubManager, ClubID: clubPtr(7)}}}
	noGrants  = rbac.Principal{ID: 9}
	plainUser = rbac.Principal{ID: 10, Grants: []roles.Grant{{Kind: roles.KindUser}}}
	payload   = json.RawMessage(`{"title":"Robotics demo"}`)
	fixedNow  = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubClubs{5: true, 7: true, 8: false})
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestSubmitByManagerCreatesPending(t *testing.T) {
	svc, repo := newTestService()

	req, err := svc.SubmitRequest(context.Background(), manager5, 5, payload)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, fixedNow, req.SubmittedAt)
	assert.Nil(t, req.ReviewedAt)
	assert.Nil(t, req.ReviewerID)
	assert.Equal(t, manager5.ID, repo.history[req.ID][0].ActorID)
}

func TestSubmitAuthorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SubmitRequest(ctx, manager5, 7, payload)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.SubmitRequest(ctx, plainUser, 5, payload)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.SubmitRequest(ctx, adminP, 7, payload)
	assert.NoError(t, err)
}

func TestSubmitValidatesClubAndPayload(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SubmitRequest(ctx, adminP, 8, payload)
	assert.ErrorIs(t, err, ErrClubNotFound)
	_, err = svc.SubmitRequest(ctx, adminP, 404, payload)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.SubmitRequest(ctx, adminP, 5, json.RawMessage(`{"title":`))
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.SubmitRequest(ctx, adminP, 5, nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestReviewWithoutGrantIsForbidden(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	req, err := svc.SubmitRequest(ctx, manager5, 5, payload)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, noGrants, req.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Reject(ctx, manager7, req.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, StatusPending, repo.requests[req.ID].Status)
}

func TestAdminApprovesThenRejectFails(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	req, err := svc.SubmitRequest(ctx, manager5, 5, payload)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, adminP, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, fixedNow, *approved.ReviewedAt)
	assert.Equal(t, adminP.ID, *approved.ReviewerID)

	_, err = svc.Reject(ctx, adminP, req.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Equal(t, StatusApproved, repo.requests[req.ID].Status)
}

func TestManagerReviewsOwnClub(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	req, err := svc.SubmitRequest(ctx, adminP, 5, payload)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, manager5, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
}

func TestReviewMissingRequest(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Approve(context.Background(), adminP, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPendingVisibility(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	r5, err := svc.SubmitRequest(ctx, adminP, 5, payload)
	require.NoError(t, err)
	r7, err := svc.SubmitRequest(ctx, adminP, 7, payload)
	require.NoError(t, err)
	done, err := svc.SubmitRequest(ctx, adminP, 5, payload)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, adminP, done.ID)
	require.NoError(t, err)

	list, err := svc.ListPending(ctx, manager5)
	require.NoError(t, err)
	assert.Equal(t, []int64{r5.ID}, ids(list))

	list, err = svc.ListPending(ctx, adminP)
	require.NoError(t, err)
	assert.Equal(t, []int64{r5.ID, r7.ID}, ids(list))

	calls := len(repo.scopes)
	list, err = svc.ListPending(ctx, plainUser)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Equal(t, calls, len(repo.scopes), "no store round-trip without review authority")
}

func TestListForClub(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.SubmitRequest(ctx, manager5, 5, payload)
		require.NoError(t, err)
	}

	page, err := svc.ListForClub(ctx, manager5, 5, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID)

	_, err = svc.ListForClub(ctx, manager7, 5, 1, 2)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetAndHistoryRequireReviewer(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	req, err := svc.SubmitRequest(ctx, manager5, 5, payload)
	require.NoError(t, err)

	_, err = svc.Get(ctx, manager7, req.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	history, err := svc.History(ctx, manager5, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, shared.ApprovalSubmit, history[0].Action)
}

func TestConcurrentReviewsExactlyOneWins(t *testing.T) {
	for round := 0; round < 20; round++ {
		svc, repo := newTestService()
		ctx := context.Background()
		req, err := svc.SubmitRequest(ctx, manager5, 5, payload)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, errs[0] = svc.Approve(ctx, adminP, req.ID)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, errs[1] = svc.Reject(ctx, manager5, req.ID)
		}()
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, shared.ErrInvalidTransition), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)
		assert.True(t, repo.requests[req.ID].Status.IsTerminal())
	}
}

func ids(reqs []ContentRequest) []int64 {
	out := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}
