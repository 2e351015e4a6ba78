package events

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
)

// ImageStore keeps uploaded event images.
type ImageStore interface {
	SaveFromRequest(r *http.Request, field, prefix string) (string, error)
	Remove(url string) error
}

// Handler serves event endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
	images   ImageStore
	now      func() time.Time
}

// NewHandler creates a Handler. images may be nil to disable uploads.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, images ImageStore) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: rbac, images: images, now: time.Now}
}

// MountRoutes registers event routes. Reads are public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/featured", h.featured)
	r.Get("/{id}", h.show)
	r.Get("/{id}/calendar.ics", h.ics)
	r.Get("/{id}/calendar-links", h.links)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireGlobalAdmin())
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Patch("/{id}/toggle-featured", h.toggleFeatured)
		r.Delete("/{id}", h.delete)
		if h.images != nil {
			r.Post("/{id}/upload-image", h.uploadImage)
		}
	})
}

func isAdmin(r *http.Request) bool {
	p, ok := rbac.PrincipalFromContext(r.Context())
	return ok && rbac.IsGlobalAdmin(p.Grants)
}

func optionalID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("invalid id %q", raw)
	}
	return &v, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := httpx.PageParams(r, 100)
	f := Filter{
		Search:     q.Get("search"),
		ActiveOnly: q.Get("active_only") != "false" || !isAdmin(r),
		Page:       page,
		Limit:      limit,
	}
	var err error
	if f.CategoryID, err = optionalID(q.Get("category_id")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "category_id: "+err.Error())
		return
	}
	if f.ClubID, err = optionalID(q.Get("club_id")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "club_id: "+err.Error())
		return
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "featured must be a boolean")
			return
		}
		f.Featured = &featured
	}

	result, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.Fail(w, h.logger, "list events", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Featured(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "featured events", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// load fetches the event named in the URL; inactive events are hidden from
// everyone but global admins.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Event, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return Event{}, false
	}
	e, err := h.service.Get(r.Context(), id)
	if err == nil && !e.IsActive && !isAdmin(r) {
		err = ErrNotFound
	}
	if err != nil {
		httpx.Fail(w, h.logger, "get event", err)
		return Event{}, false
	}
	return e, true
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	if e, ok := h.load(w, r); ok {
		httpx.JSON(w, http.StatusOK, e)
	}
}

func (h *Handler) ics(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	body, err := ExportICS(e, h.now())
	if err != nil {
		httpx.Fail(w, h.logger, "export event calendar", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%d.ics"`, e.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) links(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	icsURL := strings.TrimSuffix(r.URL.Path, "/calendar-links") + "/calendar.ics"
	httpx.JSON(w, http.StatusOK, Links(e, icsURL))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if err := httpx.DecodeAndValidate(r, h.validate, &d); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Create(r.Context(), d)
	if err != nil {
		httpx.Fail(w, h.logger, "create event", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
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
	e, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.Fail(w, h.logger, "update event", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.ToggleFeatured(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "toggle featured event", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete event", err)
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
		httpx.Fail(w, h.logger, "get event", err)
		return
	}
	url, err := h.images.SaveFromRequest(r, "file", "event_")
	if err != nil {
		httpx.Fail(w, h.logger, "save event image", err)
		return
	}
	e, previous, err := h.service.SetImage(r.Context(), id, url)
	if err != nil {
		_ = h.images.Remove(url)
		httpx.Fail(w, h.logger, "set event image", err)
		return
	}
	if err := h.images.Remove(previous); err != nil && h.logger != nil {
		h.logger.Warn("remove replaced event image", slog.String("url", previous), slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, e)
}
