package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusevents/campusevents/internal/forms"
	formshttp "github.com/campusevents/campusevents/internal/forms/http"
	"github.com/campusevents/campusevents/internal/observability"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/roles"
	"github.com/campusevents/campusevents/internal/shared"
	_ "github.com/campusevents/campusevents/testing"
)

type stubRepo struct {
	mu    sync.Mutex
	forms []forms.Form
	apps  []forms.Application
}

func (s *stubRepo) InsertForm(_ context.Context, f forms.Form) (forms.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = int64(len(s.forms) + 1)
	s.forms = append(s.forms, f)
	return f, nil
}

func (s *stubRepo) GetForm(_ context.Context, id int64) (forms.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || int(id) > len(s.forms) || s.forms[id-1].ID == 0 {
		return forms.Form{}, forms.ErrFormNotFound
	}
	return s.forms[id-1], nil
}

func (s *stubRepo) UpdateForm(_ context.Context, f forms.Form) (forms.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[f.ID-1] = f
	return f, nil
}

func (s *stubRepo) DeleteForm(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[id-1] = forms.Form{}
	return nil
}

func (s *stubRepo) ListForms(_ context.Context, clubID int64, activeOnly bool, _, _ int) ([]forms.Form, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []forms.Form{}
	for _, f := range s.forms {
		if f.ID != 0 && f.ClubID == clubID && (f.IsActive || !activeOnly) {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) InsertApplication(_ context.Context, a forms.Application) (forms.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.apps) + 1)
	s.apps = append(s.apps, a)
	return a, nil
}

func (s *stubRepo) GetApplication(_ context.Context, id int64) (forms.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || int(id) > len(s.apps) {
		return forms.Application{}, forms.ErrApplicationNotFound
	}
	return s.apps[id-1], nil
}

func (s *stubRepo) ListApplications(_ context.Context, formID int64, _, _ int) ([]forms.Application, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []forms.Application{}
	for _, a := range s.apps {
		if a.FormID == formID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID int64) ([]forms.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []forms.Application{}
	for _, a := range s.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRepo) Transition(_ context.Context, next forms.Application, from forms.Status) (forms.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apps[next.ID-1].Status != from {
		return forms.Application{}, forms.ErrInvalidTransition
	}
	s.apps[next.ID-1] = next
	return next, nil
}

func (s *stubRepo) History(context.Context, int64) ([]shared.ApprovalLog, error) {
	return []shared.ApprovalLog{}, nil
}

type activeClubs struct{}

func (activeClubs) ClubActive(_ context.Context, id int64) (bool, error) { return id == 5, nil }

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func (g *stubGuard) CheckAndInsert(_ context.Context, key, module string) error {
	if g.seen[module+key] {
		return shared.ErrIdempotencyConflict
	}
	g.seen[module+key] = true
	return nil
}

func (g *stubGuard) Delete(_ context.Context, key, module string) error {
	delete(g.seen, module+key)
	g.deleted = append(g.deleted, key)
	return nil
}

type stubAudit struct {
	actions []string
}

func (a *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

type fixture struct {
	router http.Handler
	repo   *stubRepo
	guard  *stubGuard
	audit  *stubAudit
	as     *rbac.Principal
}

func clubID(id int64) *int64 { return &id }

var (
	admin   = rbac.Principal{ID: 1, Grants: []roles.Grant{{Kind: roles.KindAdmin}}}
	manager = rbac.Principal{ID: 2, Grants: []roles.Grant{{Kind: roles.KindClubManager, ClubID: clubID(5)}}}
	member  = rbac.Principal{ID: 3, Grants: []roles.Grant{{Kind: roles.KindUser}}}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  &stubRepo{},
		guard: &stubGuard{seen: map[string]bool{}},
		audit: &stubAudit{},
	}
	svc := forms.NewService(f.repo, activeClubs{})
	h := formshttp.NewHandler(nil, svc, rbac.Middleware{}, formshttp.Deps{
		Idempotency: f.guard,
		Audit:       f.audit,
		Metrics:     observability.NewMetrics(),
	})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if f.as != nil {
				req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), *f.as))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/forms", h.MountFormRoutes)
	r.Route("/applications", h.MountApplicationRoutes)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, p *rbac.Principal, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	f.as = p
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func formBody(active bool) map[string]any {
	return map[string]any{
		"club_id":   5,
		"name":      "Join the debate society",
		"is_active": active,
		"fields_json": []map[string]any{
			{"name": "full_name", "label": "Full name", "type": "text", "required": true},
			{"name": "track", "label": "Track", "type": "radio", "options": []string{"novice", "open"}},
		},
	}
}

func TestFormLifecycle(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, &member, http.MethodPost, "/forms/", formBody(true), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(t, &manager, http.MethodPost, "/forms/", map[string]any{"club_id": 5, "name": "No fields"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, &manager, http.MethodPost, "/forms/", formBody(false), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created forms.Form
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Len(t, created.Fields, 2)

	rr = f.do(t, &member, http.MethodGet, "/forms/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	update := formBody(true)
	delete(update, "club_id")
	rr = f.do(t, &manager, http.MethodPut, "/forms/1", update, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, &member, http.MethodGet, "/forms/club/5", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page shared.Page[forms.Form]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Len(t, page.Items, 1)

	rr = f.do(t, &member, http.MethodDelete, "/forms/1", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = f.do(t, &admin, http.MethodDelete, "/forms/1", nil, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assert.Equal(t, []string{"form.create", "form.update", "form.delete"}, f.audit.actions)
}

func TestApplyAndReviewFlow(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &manager, http.MethodPost, "/forms/", formBody(true), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	answers := map[string]any{"data_json": map[string]any{"full_name": "Grace", "track": "open"}}
	rr = f.do(t, &member, http.MethodPost, "/applications/form/1", answers, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var app forms.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &app))
	assert.Equal(t, forms.StatusSubmitted, app.Status)
	assert.Equal(t, member.ID, app.UserID)

	bad := map[string]any{"data_json": map[string]any{"track": "expert"}}
	rr = f.do(t, &member, http.MethodPost, "/applications/form/1", bad, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, &member, http.MethodGet, "/applications/mine", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []forms.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rr = f.do(t, &member, http.MethodGet, "/applications/form/1/applications", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = f.do(t, &manager, http.MethodGet, "/applications/form/1/applications", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, &member, http.MethodPut, "/applications/1/status", map[string]string{"status": "accepted"}, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = f.do(t, &manager, http.MethodPut, "/applications/1/status", map[string]string{"status": "submitted"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, &manager, http.MethodPut, "/applications/1/status", map[string]string{"status": "accepted"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = f.do(t, &admin, http.MethodPut, "/applications/1/status", map[string]string{"status": "rejected"}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, forms.StatusAccepted, f.repo.apps[0].Status)

	rr = f.do(t, &member, http.MethodGet, "/applications/1/history", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, []string{"form.create", "application.submit", "application.accepted"}, f.audit.actions)
}

func TestSubmitIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &manager, http.MethodPost, "/forms/", formBody(true), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	headers := map[string]string{"Idempotency-Key": "apply-1"}
	answers := map[string]any{"data_json": map[string]any{"full_name": "Grace"}}
	rr = f.do(t, &member, http.MethodPost, "/applications/form/1", answers, headers)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = f.do(t, &member, http.MethodPost, "/applications/form/1", answers, headers)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Len(t, f.repo.apps, 1)

	retry := map[string]string{"Idempotency-Key": "apply-2"}
	rr = f.do(t, &member, http.MethodPost, "/applications/form/9", answers, retry)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, []string{"apply-2"}, f.guard.deleted)
}

func TestApplicationRoutesRequireAuthentication(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, nil, http.MethodGet, "/applications/mine", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = f.do(t, nil, http.MethodPost, "/forms/", formBody(true), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
