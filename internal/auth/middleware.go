package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/shared"
)

// Middleware attaches the principal of a bearer token to the request
// context. Requests without an Authorization header pass through anonymous;
// a malformed or invalid token is rejected.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			p, err := service.Resolve(r.Context(), strings.TrimSpace(token))
			if err != nil {
				httpx.Fail(w, logger, "resolve principal", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), p)))
		})
	}
}
