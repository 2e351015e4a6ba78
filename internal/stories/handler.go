package stories

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
)

// ImageStore keeps uploaded story images.
type ImageStore interface {
	SaveFromRequest(r *http.Request, field, prefix string) (string, error)
	Remove(url string) error
}

// Handler serves story endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
	images   ImageStore
}

// NewHandler creates a Handler. images may be nil to disable uploads.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, images ImageStore) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: rbac, images: images}
}

// MountRoutes registers story routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireGlobalAdmin())
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		if h.images != nil {
			r.Post("/{id}/upload-image", h.uploadImage)
		}
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	liveOnly := true
	if r.URL.Query().Get("active_only") == "false" {
		p, ok := rbac.PrincipalFromContext(r.Context())
		liveOnly = !ok || !rbac.IsGlobalAdmin(p.Grants)
	}
	items, err := h.service.List(r.Context(), liveOnly)
	if err != nil {
		httpx.Fail(w, h.logger, "list stories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get story", err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create story", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
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
	st, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.Fail(w, h.logger, "update story", err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete story", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Get(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "get story", err)
		return
	}
	url, err := h.images.SaveFromRequest(r, "file", "story_")
	if err != nil {
		httpx.Fail(w, h.logger, "save story image", err)
		return
	}
	st, previous, err := h.service.SetImage(r.Context(), id, url)
	if err != nil {
		_ = h.images.Remove(url)
		httpx.Fail(w, h.logger, "set story image", err)
		return
	}
	if err := h.images.Remove(previous); err != nil && h.logger != nil {
		h.logger.Warn("remove replaced story image", slog.String("url", previous), slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, st)
}
