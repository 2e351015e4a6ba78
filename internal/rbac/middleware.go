package rbac

import (
	"log/slog"
	"net/http"

	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/roles"
	"github.com/campusevents/campusevents/internal/shared"
)

// Middleware wires authorization checks in front of HTTP handlers. The
// principal is expected in the request context, placed there by auth.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a principal.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGlobalAdmin allows admin and super_admin principals only.
func (m Middleware) RequireGlobalAdmin() func(http.Handler) http.Handler {
	return m.require("admin", IsGlobalAdmin)
}

// RequireSuperAdmin allows super_admin principals only.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return m.require("super_admin", IsSuperAdmin)
}

// RequireClubManager allows principals that manage the club whose id is in
// the named URL parameter.
func (m Middleware) RequireClubManager(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			clubID, err := httpx.IDParam(r, param)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if !CanManageClub(p.Grants, clubID) {
				m.denied(r, p, "club_manager")
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) require(role string, check func(grants []roles.Grant) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if !check(p.Grants) {
				m.denied(r, p, role)
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) denied(r *http.Request, p Principal, role string) {
	if m.Logger == nil {
		return
	}
	m.Logger.Warn("rbac denied",
		slog.Int64("user_id", p.ID),
		slog.String("required", role),
		slog.String("path", r.URL.Path))
}
