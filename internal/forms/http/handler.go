// Package http exposes club application forms over JSON.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/forms"
	"github.com/campusevents/campusevents/internal/observability"
	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/shared"
)

const idempotencyModule = "applications"

// IdempotencyGuard de-duplicates submissions carrying an Idempotency-Key.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// AuditRecorder writes audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Deps groups optional collaborators of the handler.
type Deps struct {
	Idempotency IdempotencyGuard
	Audit       AuditRecorder
	Metrics     *observability.Metrics
}

// Handler serves form management and application endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *forms.Service
	validate    *validator.Validate
	idempotency IdempotencyGuard
	audit       AuditRecorder
	metrics     *observability.Metrics
	rbac        rbac.Middleware
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *forms.Service, rbac rbac.Middleware, deps Deps) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		validate:    validator.New(),
		idempotency: deps.Idempotency,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		rbac:        rbac,
	}
}

// MountFormRoutes registers form routes.
func (h *Handler) MountFormRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Post("/", h.createForm)
		r.Get("/club/{clubID}", h.listClubForms)
		r.Get("/{id}", h.showForm)
		r.Put("/{id}", h.updateForm)
		r.Delete("/{id}", h.deleteForm)
	})
}

// MountApplicationRoutes registers application routes.
func (h *Handler) MountApplicationRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Post("/form/{formID}", h.submit)
		r.Get("/form/{formID}/applications", h.listApplications)
		r.Get("/mine", h.listMine)
		r.Get("/{id}", h.showApplication)
		r.Put("/{id}/status", h.setStatus)
		r.Get("/{id}/history", h.history)
	})
}

func principal(r *http.Request) rbac.Principal {
	p, _ := rbac.PrincipalFromContext(r.Context())
	return p
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	var body CreateFormRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)
	form, err := h.service.CreateForm(r.Context(), p, body.ClubID, body.definition())
	if err != nil {
		h.fail(w, "create form", err)
		return
	}
	h.recordAudit(r.Context(), p, "form.create", "form", form.ID, map[string]any{"club_id": form.ClubID})
	httpx.JSON(w, http.StatusCreated, form)
}

func (h *Handler) listClubForms(w http.ResponseWriter, r *http.Request) {
	clubID, err := httpx.IDParam(r, "clubID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, limit := httpx.PageParams(r, 100)
	result, err := h.service.ListClubForms(r.Context(), principal(r), clubID, page, limit)
	if err != nil {
		h.fail(w, "list club forms", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	form, err := h.service.GetForm(r.Context(), principal(r), id)
	if err != nil {
		h.fail(w, "get form", err)
		return
	}
	httpx.JSON(w, http.StatusOK, form)
}

func (h *Handler) updateForm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var body FormRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)
	form, err := h.service.UpdateForm(r.Context(), p, id, body.definition())
	if err != nil {
		h.fail(w, "update form", err)
		return
	}
	h.recordAudit(r.Context(), p, "form.update", "form", form.ID, map[string]any{"club_id": form.ClubID, "is_active": form.IsActive})
	httpx.JSON(w, http.StatusOK, form)
}

func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)
	if err := h.service.DeleteForm(r.Context(), p, id); err != nil {
		h.fail(w, "delete form", err)
		return
	}
	h.recordAudit(r.Context(), p, "form.delete", "form", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	formID, err := httpx.IDParam(r, "formID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var body ApplyRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			h.fail(w, "application idempotency", err)
			return
		}
	}

	app, err := h.service.Submit(r.Context(), p, formID, body.Data)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if derr := h.idempotency.Delete(r.Context(), key, idempotencyModule); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.fail(w, "submit application", err)
		return
	}

	h.metrics.ApplicationTransition(string(app.Status))
	h.recordApplication(r.Context(), p, "application.submit", app)
	httpx.JSON(w, http.StatusCreated, app)
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	formID, err := httpx.IDParam(r, "formID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, limit := httpx.PageParams(r, 100)
	result, err := h.service.ListApplications(r.Context(), principal(r), formID, page, limit)
	if err != nil {
		h.fail(w, "list applications", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListMine(r.Context(), principal(r))
	if err != nil {
		h.fail(w, "list own applications", err)
		return
	}
	httpx.JSON(w, http.StatusOK, apps)
}

func (h *Handler) showApplication(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	app, err := h.service.GetApplication(r.Context(), principal(r), id)
	if err != nil {
		h.fail(w, "get application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var body StatusRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)
	app, err := h.service.SetStatus(r.Context(), p, id, body.Status)
	if err != nil {
		h.fail(w, "set application status", err)
		return
	}
	h.metrics.ApplicationTransition(string(app.Status))
	h.recordApplication(r.Context(), p, "application."+string(app.Status), app)
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	logs, err := h.service.History(r.Context(), principal(r), id)
	if err != nil {
		h.fail(w, "application history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, logs)
}

func (h *Handler) recordApplication(ctx context.Context, p rbac.Principal, action string, app forms.Application) {
	h.recordAudit(ctx, p, action, "application", app.ID, map[string]any{
		"form_id": app.FormID,
		"club_id": app.ClubID,
		"status":  app.Status,
	})
}

func (h *Handler) recordAudit(ctx context.Context, p rbac.Principal, action, entity string, id int64, meta map[string]any) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   action,
		Entity:   entity,
		EntityID: shared.EntityID(id),
		Meta:     meta,
	})
	if err != nil {
		h.logger.Warn("audit "+entity, slog.String("action", action), slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	httpx.Fail(w, h.logger, op, err)
}
