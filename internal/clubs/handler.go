package clubs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/shared"
)

// Handler serves club endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler creates a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: rbac}
}

// MountRoutes registers club routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/members", h.listMembers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireGlobalAdmin())
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireClubManager("id"))
		r.Put("/{id}", h.update)
		r.Post("/{id}/members", h.addMember)
		r.Delete("/{id}/members/{userID}", h.removeMember)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.PageParams(r, 100)
	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		httpx.Fail(w, h.logger, "list clubs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	club, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get club", err)
		return
	}
	httpx.JSON(w, http.StatusOK, club)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	club, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create club", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, club)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	// Managers edit the profile; only global admins open or close a club.
	if p, _ := rbac.PrincipalFromContext(r.Context()); in.IsActive != nil && !rbac.IsGlobalAdmin(p.Grants) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	club, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.Fail(w, h.logger, "update club", err)
		return
	}
	httpx.JSON(w, http.StatusOK, club)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete club", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	members, err := h.service.ListMembers(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "list club members", err)
		return
	}
	httpx.JSON(w, http.StatusOK, members)
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in AddMemberInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	member, err := h.service.AddMember(r.Context(), id, in)
	if err != nil {
		httpx.Fail(w, h.logger, "add club member", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, member)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	userID, err := httpx.IDParam(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RemoveMember(r.Context(), id, userID); err != nil {
		httpx.Fail(w, h.logger, "remove club member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
