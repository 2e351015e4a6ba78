package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
)

// Handler exposes login and identity endpoints.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler creates a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New(), rbac: rbac}
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MountRoutes registers auth endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", h.login)
	r.With(h.rbac.RequireAuthenticated()).Get("/me", h.me)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("login failed", slog.String("email", req.Email))
		}
		httpx.Fail(w, h.logger, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, token)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := rbac.PrincipalFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, p)
}
