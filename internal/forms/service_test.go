package forms

import (
	"context"
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
	mu      sync.Mutex
	nextID  int64
	forms   map[int64]Form
	apps    map[int64]Application
	history map[int64][]shared.ApprovalLog
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{forms: map[int64]Form{}, apps: map[int64]Application{}, history: map[int64][]shared.ApprovalLog{}}
}

func (m *memoryRepo) InsertForm(_ context.Context, f Form) (Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	f.ID = m.nextID
	m.forms[f.ID] = f
	return f, nil
}

func (m *memoryRepo) GetForm(_ context.Context, id int64) (Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	if !ok {
		return Form{}, ErrFormNotFound
	}
	return f, nil
}

func (m *memoryRepo) UpdateForm(_ context.Context, f Form) (Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[f.ID]; !ok {
		return Form{}, ErrFormNotFound
	}
	m.forms[f.ID] = f
	return f, nil
}

func (m *memoryRepo) DeleteForm(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return ErrFormNotFound
	}
	delete(m.forms, id)
	for appID, a := range m.apps {
		if a.FormID == id {
			delete(m.apps, appID)
		}
	}
	return nil
}

func (m *memoryRepo) ListForms(_ context.Context, clubID int64, activeOnly bool, limit, offset int) ([]Form, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Form
	for _, f := range m.forms {
		if f.ClubID == clubID && (f.IsActive || !activeOnly) {
			all = append(all, f)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return window(all, limit, offset), len(all), nil
}

func (m *memoryRepo) InsertApplication(_ context.Context, a Application) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	m.apps[a.ID] = a
	m.history[a.ID] = append(m.history[a.ID], shared.ApprovalLog{RefID: a.ID, ActorID: a.UserID, Action: shared.ApprovalSubmit})
	return a, nil
}

func (m *memoryRepo) GetApplication(_ context.Context, id int64) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	return a, nil
}

func (m *memoryRepo) ListApplications(_ context.Context, formID int64, limit, offset int) ([]Application, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Application
	for _, a := range m.apps {
		if a.FormID == formID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return window(all, limit, offset), len(all), nil
}

func (m *memoryRepo) ListByUser(_ context.Context, userID int64) ([]Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Application{}
	for _, a := range m.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Transition mirrors the store's compare-and-set on the previous status.
func (m *memoryRepo) Transition(_ context.Context, next Application, from Status) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.apps[next.ID]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	if current.Status != from {
		return Application{}, ErrInvalidTransition
	}
	m.apps[next.ID] = next
	m.history[next.ID] = append(m.history[next.ID], shared.ApprovalLog{RefID: next.ID, ActorID: *next.ReviewerID, Action: approvalAction(next.Status)})
	return next, nil
}

func (m *memoryRepo) History(_ context.Context, id int64) ([]shared.ApprovalLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[id], nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
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
	student   = rbac.Principal{ID: 10, Grants: []roles.Grant{{Kind: roles.KindUser}}}
	otherUser = rbac.Principal{ID: 11}
	fixedNow  = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	joinDef   = Definition{Name: "Join us", Fields: joinForm.Fields, IsActive: true}
	answers   = map[string]any{"full_name": "Ada", "email": "ada@campus.edu"}
)

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubClubs{5: true, 7: true, 8: false})
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestCreateFormAuthorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, manager5, 5, joinDef)
	require.NoError(t, err)
	assert.Equal(t, int64(5), form.ClubID)

	_, err = svc.CreateForm(ctx, manager7, 5, joinDef)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.CreateForm(ctx, student, 5, joinDef)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.CreateForm(ctx, adminP, 8, joinDef)
	assert.ErrorIs(t, err, ErrClubNotFound)
	_, err = svc.CreateForm(ctx, adminP, 7, Definition{Name: " ", Fields: joinForm.Fields})
	assert.ErrorIs(t, err, ErrInvalidForm)
	_, err = svc.CreateForm(ctx, adminP, 7, Definition{Name: "Empty"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestInactiveFormsAreHiddenFromApplicants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	draft := joinDef
	draft.IsActive = false
	hidden, err := svc.CreateForm(ctx, manager5, 5, draft)
	require.NoError(t, err)
	open, err := svc.CreateForm(ctx, manager5, 5, joinDef)
	require.NoError(t, err)

	_, err = svc.GetForm(ctx, student, hidden.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)
	_, err = svc.GetForm(ctx, manager5, hidden.ID)
	assert.NoError(t, err)
	_, err = svc.Submit(ctx, student, hidden.ID, answers)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	page, err := svc.ListClubForms(ctx, student, 5, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, open.ID, page.Items[0].ID)

	page, err = svc.ListClubForms(ctx, manager5, 5, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)
}

func TestUpdateAndDeleteForm(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	form, err := svc.CreateForm(ctx, manager5, 5, joinDef)
	require.NoError(t, err)
	app, err := svc.Submit(ctx, student, form.ID, answers)
	require.NoError(t, err)

	renamed := joinDef
	renamed.Name = "Autumn intake"
	_, err = svc.UpdateForm(ctx, manager7, form.ID, renamed)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	updated, err := svc.UpdateForm(ctx, manager5, form.ID, renamed)
	require.NoError(t, err)
	assert.Equal(t, "Autumn intake", updated.Name)
	assert.Equal(t, int64(5), updated.ClubID)

	require.NoError(t, svc.DeleteForm(ctx, adminP, form.ID))
	_, err = svc.GetApplication(ctx, student, app.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.apps)
	assert.ErrorIs(t, svc.DeleteForm(ctx, adminP, form.ID), ErrFormNotFound)
}

func TestSubmitValidatesAnswers(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	form, err := svc.CreateForm(ctx, manager5, 5, joinDef)
	require.NoError(t, err)

	app, err := svc.Submit(ctx, student, form.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, app.Status)
	assert.Equal(t, int64(5), app.ClubID)
	assert.Equal(t, fixedNow, app.SubmittedAt)
	assert.Equal(t, student.ID, repo.history[app.ID][0].ActorID)

	_, err = svc.Submit(ctx, student, form.ID, map[string]any{"full_name": "Ada"})
	assert.ErrorIs(t, err, ErrInvalidAnswers)
	_, err = svc.Submit(ctx, student, 999, answers)
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestApplicationVisibility(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	form, err := svc.CreateForm(ctx, manager5, 5, joinDef)
	require.NoError(t, err)
	app, err := svc.Submit(ctx, student, form.ID, answers)
	require.NoError(t, err)

	_, err = svc.GetApplication(ctx, student, app.ID)
	assert.NoError(t, err)
	_, err = svc.GetApplication(ctx, manager5, app.ID)
	assert.NoError(t, err)
	_, err = svc.GetApplication(ctx, otherUser, app.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.History(ctx, manager7, app.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	mine, err := svc.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	mine, err = svc.ListMine(ctx, otherUser)
	require.NoError(t, err)
	assert.Empty(t, mine)

	page, err := svc.ListApplications(ctx, manager5, form.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Total)
	_, err = svc.ListApplications(ctx, student, form.ID, 1, 10)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSetStatusWorkflow(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	form, err := svc.CreateForm(ctx, manager5, 5, joinDef)
	require.NoError(t, err)
	app, err := svc.Submit(ctx, student, form.ID, answers)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, student, app.ID, StatusAccepted)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	reviewing, err := svc.SetStatus(ctx, manager5, app.ID, StatusUnderReview)
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, reviewing.Status)
	assert.Equal(t, fixedNow, *reviewing.ReviewedAt)

	accepted, err := svc.SetStatus(ctx, adminP, app.ID, StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, adminP.ID, *accepted.ReviewerID)

	_, err = svc.SetStatus(ctx, manager5, app.ID, StatusRejected)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = svc.SetStatus(ctx, manager5, app.ID, "archived")
	assert.ErrorIs(t, err, shared.ErrValidation)

	history, err := svc.History(ctx, student, app.ID)
	require.NoError(t, err)
	actions := []shared.ApprovalAction{}
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []shared.ApprovalAction{shared.ApprovalSubmit, shared.ApprovalReview, shared.ApprovalApprove}, actions)
	assert.Equal(t, StatusAccepted, repo.apps[app.ID].Status)
}

func TestConcurrentDecisionsExactlyOneWins(t *testing.T) {
	for round := 0; round < 20; round++ {
		svc, repo := newTestService()
		ctx := context.Background()
		form, err := svc.CreateForm(ctx, manager5, 5, joinDef)
		require.NoError(t, err)
		app, err := svc.Submit(ctx, student, form.ID, answers)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for i, next := range []Status{StatusAccepted, StatusRejected} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = svc.SetStatus(ctx, manager5, app.ID, next)
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
		assert.True(t, repo.apps[app.ID].Status.IsTerminal())
	}
}
