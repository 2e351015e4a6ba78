package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/roles"
	_ "github.com/campusevents/campusevents/testing"
)

type memoryRepo struct {
	stored *Settings
	seeds  int
}

func (m *memoryRepo) GetOrCreate(_ context.Context, defaults Settings) (Settings, error) {
	if m.stored == nil {
		m.seeds++
		m.stored = &defaults
	}
	return *m.stored, nil
}

func (m *memoryRepo) Save(_ context.Context, s Settings) (Settings, error) {
	m.stored = &s
	return s, nil
}

func TestGetCreatesDefaultsOnce(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	s, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSiteName, s.SiteName)
	assert.NotNil(t, s.FAQs)

	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.seeds)
}

func TestUpdateIsPartial(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	mission := "Bring students together"
	faqs := []FAQ{{Question: "How do I join?", Answer: "Visit the club page."}}
	s, err := svc.Update(ctx, UpdateInput{Mission: &mission, FAQs: &faqs})
	require.NoError(t, err)
	assert.Equal(t, DefaultSiteName, s.SiteName)
	assert.Equal(t, mission, s.Mission)
	assert.Equal(t, faqs, s.FAQs)

	vision := "Every student in a club"
	s, err = svc.Update(ctx, UpdateInput{Vision: &vision})
	require.NoError(t, err)
	assert.Equal(t, mission, s.Mission)
	assert.Len(t, s.FAQs, 1)
}

func TestHandler(t *testing.T) {
	svc := NewService(&memoryRepo{})
	admin := rbac.Principal{ID: 1, Grants: []roles.Grant{{Kind: roles.KindAdmin}}}

	var as *rbac.Principal
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if as != nil {
				req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), *as))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/settings", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/settings/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/settings/", strings.NewReader(`{"site_name":"Uni Events"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	as = &admin
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/settings/", strings.NewReader(`{"faqs":[{"question":"Q?"}]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/settings/", strings.NewReader(`{"site_name":"Uni Events","contact_email":"hi@uni.edu"}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var s Settings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "Uni Events", s.SiteName)
	assert.Equal(t, "hi@uni.edu", s.ContactEmail)
}
