package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusevents/campusevents/internal/platform/db/dbtest"
	"github.com/campusevents/campusevents/internal/shared"
)

func TestPgApplicationLifecycle(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	club := dbtest.Club(t, pool, "Robotics")
	applicant := dbtest.User(t, pool, "student@campus.edu")
	reviewer := dbtest.User(t, pool, "manager@campus.edu")
	now := time.Now().UTC().Truncate(time.Microsecond)

	form, err := repo.InsertForm(ctx, Form{ClubID: club, Name: "Join", Fields: joinForm.Fields, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, joinForm.Fields, form.Fields)

	app, err := repo.InsertApplication(ctx, Apply(form, applicant, map[string]any{"full_name": "Ada", "age": float64(20)}, now))
	require.NoError(t, err)

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, club, got.ClubID)
	assert.Equal(t, StatusSubmitted, got.Status)
	assert.Equal(t, map[string]any{"full_name": "Ada", "age": float64(20)}, got.Data)

	reviewing, err := got.MoveTo(StatusUnderReview, reviewer, now)
	require.NoError(t, err)
	_, err = repo.Transition(ctx, reviewing, StatusSubmitted)
	require.NoError(t, err)

	accepted, err := got.MoveTo(StatusAccepted, reviewer, now)
	require.NoError(t, err)
	_, err = repo.Transition(ctx, accepted, StatusSubmitted)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition, "stale status must not win")

	history, err := repo.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, shared.ApprovalReview, history[1].Action)

	mine, err := repo.ListByUser(ctx, applicant)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, repo.DeleteForm(ctx, form.ID))
	_, err = repo.GetApplication(ctx, app.ID)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
	assert.ErrorIs(t, repo.DeleteForm(ctx, form.ID), ErrFormNotFound)
}

func TestPgListFormsHidesInactive(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	club := dbtest.Club(t, pool, "Choir")

	_, err := repo.InsertForm(ctx, Form{ClubID: club, Name: "Draft", Fields: joinForm.Fields})
	require.NoError(t, err)
	open, err := repo.InsertForm(ctx, Form{ClubID: club, Name: "Open", Fields: joinForm.Fields, IsActive: true})
	require.NoError(t, err)

	active, total, err := repo.ListForms(ctx, club, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	_, total, err = repo.ListForms(ctx, club, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
