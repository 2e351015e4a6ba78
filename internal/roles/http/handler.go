// Package http exposes role administration endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/observability"
	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/roles"
	"github.com/campusevents/campusevents/internal/shared"
	"github.com/campusevents/campusevents/internal/users"
)

// UserDirectory confirms grant targets exist.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// AuditRecorder writes audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SystemGrantRequest grants a global role.
type SystemGrantRequest struct {
	UserID int64      `json:"user_id" validate:"required,gt=0"`
	Kind   roles.Kind `json:"role_type" validate:"required,oneof=admin super_admin"`
}

// ClubGrantRequest makes a user manager of a club.
type ClubGrantRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	ClubID int64 `json:"club_id" validate:"required,gt=0"`
}

// Handler serves role administration.
type Handler struct {
	logger   *slog.Logger
	service  *roles.Service
	users    UserDirectory
	audit    AuditRecorder
	metrics  *observability.Metrics
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds the handler. audit and metrics may be nil.
func NewHandler(logger *slog.Logger, service *roles.Service, users UserDirectory, audit AuditRecorder, metrics *observability.Metrics, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		users:    users,
		audit:    audit,
		metrics:  metrics,
		validate: validator.New(),
		rbac:     rbac,
	}
}

// MountRoutes registers role endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireSuperAdmin()).Post("/system", h.grantSystem)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireGlobalAdmin())
		r.Post("/club", h.grantClub)
		r.Get("/user/{userID}", h.listForUser)
		r.Delete("/{grantID}", h.revoke)
	})
}

func (h *Handler) grantSystem(w http.ResponseWriter, r *http.Request) {
	var req SystemGrantRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.grant(w, r, req.UserID, req.Kind, nil)
}

func (h *Handler) grantClub(w http.ResponseWriter, r *http.Request) {
	var req ClubGrantRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	clubID := req.ClubID
	h.grant(w, r, req.UserID, roles.KindClubManager, &clubID)
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request, userID int64, kind roles.Kind, clubID *int64) {
	p, _ := rbac.PrincipalFromContext(r.Context())
	if !rbac.CanGrant(p.Grants, kind) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	if h.users != nil {
		if _, err := h.users.Get(r.Context(), userID); err != nil {
			httpx.Fail(w, h.logger, "lookup grant target", err)
			return
		}
	}
	g, err := h.service.GrantRole(r.Context(), userID, kind, clubID)
	if err != nil {
		httpx.Fail(w, h.logger, "grant role", err)
		return
	}
	h.metrics.RoleGrantChanged("grant")
	h.recordAudit(r.Context(), p, "role.grant", g)
	httpx.JSON(w, http.StatusCreated, g)
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.IDParam(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	grants, err := h.service.RolesFor(r.Context(), userID)
	if err != nil {
		httpx.Fail(w, h.logger, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	grantID, err := httpx.IDParam(r, "grantID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := rbac.PrincipalFromContext(r.Context())
	g, err := h.service.Get(r.Context(), grantID)
	if err != nil {
		httpx.Fail(w, h.logger, "load grant", err)
		return
	}
	if !rbac.CanRevoke(p.Grants, g) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	if err := h.service.RevokeRole(r.Context(), grantID); err != nil {
		httpx.Fail(w, h.logger, "revoke role", err)
		return
	}
	h.metrics.RoleGrantChanged("revoke")
	h.recordAudit(r.Context(), p, "role.revoke", g)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordAudit(ctx context.Context, p rbac.Principal, action string, g roles.Grant) {
	if h.audit == nil {
		return
	}
	meta := map[string]any{"user_id": g.UserID, "role_type": g.Kind}
	if g.ClubID != nil {
		meta["club_id"] = *g.ClubID
	}
	err := h.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   action,
		Entity:   "user_role",
		EntityID: shared.EntityID(g.ID),
		Meta:     meta,
	})
	if err != nil {
		h.logger.Warn("audit role change", slog.String("action", action), slog.Any("error", err))
	}
}
