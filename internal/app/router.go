package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusevents/campusevents/internal/auth"
	"github.com/campusevents/campusevents/internal/categories"
	"github.com/campusevents/campusevents/internal/clubs"
	contentrequesthttp "github.com/campusevents/campusevents/internal/contentrequests/http"
	"github.com/campusevents/campusevents/internal/events"
	formshttp "github.com/campusevents/campusevents/internal/forms/http"
	"github.com/campusevents/campusevents/internal/observability"
	"github.com/campusevents/campusevents/internal/platform/httpx"
	roleshttp "github.com/campusevents/campusevents/internal/roles/http"
	"github.com/campusevents/campusevents/internal/settings"
	"github.com/campusevents/campusevents/internal/stories"
	"github.com/campusevents/campusevents/internal/users"
	"github.com/campusevents/campusevents/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	AuthService *auth.Service

	AuthHandler           *auth.Handler
	UsersHandler          *users.Handler
	RolesHandler          *roleshttp.Handler
	ClubsHandler          *clubs.Handler
	ContentRequestHandler *contentrequesthttp.Handler
	CategoriesHandler     *categories.Handler
	EventsHandler         *events.Handler
	StoriesHandler        *stories.Handler
	FormsHandler          *formshttp.Handler
	SettingsHandler       *settings.Handler
	JobHandler            *jobs.Handler
	Uploads               http.Handler
	Metrics               *observability.Metrics
}

// NewRouter constructs the chi.Router with the campus API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", params.Uploads))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(params.AuthService, params.Logger))

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.ClubsHandler != nil {
			r.Route("/clubs", params.ClubsHandler.MountRoutes)
		}
		if params.ContentRequestHandler != nil {
			r.Route("/content-requests", params.ContentRequestHandler.MountRoutes)
		}
		if params.CategoriesHandler != nil {
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
		}
		if params.EventsHandler != nil {
			r.Route("/events", params.EventsHandler.MountRoutes)
		}
		if params.StoriesHandler != nil {
			r.Route("/stories", params.StoriesHandler.MountRoutes)
		}
		if params.FormsHandler != nil {
			r.Route("/forms", params.FormsHandler.MountFormRoutes)
			r.Route("/applications", params.FormsHandler.MountApplicationRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "no route for "+r.URL.Path)
	})

	return r
}
