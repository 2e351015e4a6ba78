package contentrequests

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusevents/campusevents/internal/platform/db/dbtest"
	"github.com/campusevents/campusevents/internal/shared"
)

func TestPgTransitionComparesAndSets(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	club := dbtest.Club(t, pool, "Chess")
	submitter := dbtest.User(t, pool, "manager@campus.edu")
	reviewer := dbtest.User(t, pool, "admin@campus.edu")
	now := time.Now().UTC().Truncate(time.Microsecond)

	req, err := repo.Insert(ctx, Submit(club, json.RawMessage(`{"title":"Blitz"}`), now), submitter)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)

	approved, err := req.Approve(reviewer, now.Add(time.Minute))
	require.NoError(t, err)
	stored, err := repo.Transition(ctx, approved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, reviewer, *stored.ReviewerID)
	assert.True(t, now.Add(time.Minute).Equal(*stored.ReviewedAt))

	rejected, err := req.Reject(reviewer, now.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = repo.Transition(ctx, rejected)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	got, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	history, err := repo.History(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, shared.ApprovalSubmit, history[0].Action)
	assert.Equal(t, shared.ApprovalApprove, history[1].Action)

	missing := approved
	missing.ID = req.ID + 1000
	_, err = repo.Transition(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPgConcurrentTransitionsExactlyOneWins(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	club := dbtest.Club(t, pool, "Debate")
	submitter := dbtest.User(t, pool, "manager@campus.edu")
	reviewer := dbtest.User(t, pool, "admin@campus.edu")
	now := time.Now().UTC()

	for round := 0; round < 10; round++ {
		req, err := repo.Insert(ctx, Submit(club, json.RawMessage(`{}`), now), submitter)
		require.NoError(t, err)
		approved, err := req.Approve(reviewer, now)
		require.NoError(t, err)
		rejected, err := req.Reject(reviewer, now)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for i, next := range []ContentRequest{approved, rejected} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = repo.Transition(ctx, next)
			}()
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		}
		assert.Equal(t, 1, succeeded)

		history, err := repo.History(ctx, req.ID)
		require.NoError(t, err)
		assert.Len(t, history, 2, "one submit and one review")
	}
}

func TestPgListPendingScopesByClub(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	chess := dbtest.Club(t, pool, "Chess")
	debate := dbtest.Club(t, pool, "Debate")
	submitter := dbtest.User(t, pool, "manager@campus.edu")
	now := time.Now().UTC()

	a, err := repo.Insert(ctx, Submit(chess, json.RawMessage(`{}`), now), submitter)
	require.NoError(t, err)
	b, err := repo.Insert(ctx, Submit(debate, json.RawMessage(`{}`), now.Add(time.Second)), submitter)
	require.NoError(t, err)

	all, err := repo.ListPending(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids(all))

	scoped, err := repo.ListPending(ctx, []int64{debate})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(scoped))

	page, total, err := repo.ListByClub(ctx, chess, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []int64{a.ID}, ids(page))
}
