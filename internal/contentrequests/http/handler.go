// Package http exposes the content request workflow over JSON.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/contentrequests"
	"github.com/campusevents/campusevents/internal/observability"
	"github.com/campusevents/campusevents/internal/platform/httpx"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/shared"
)

const idempotencyModule = "content_requests"

// IdempotencyGuard de-duplicates submissions carrying an Idempotency-Key.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// AuditRecorder writes audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ReviewNotifier is told about every successful review.
type ReviewNotifier interface {
	ContentRequestReviewed(ctx context.Context, req contentrequests.ContentRequest) error
}

// Handler manages content request HTTP endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *contentrequests.Service
	validate    *validator.Validate
	idempotency IdempotencyGuard
	audit       AuditRecorder
	notifier    ReviewNotifier
	metrics     *observability.Metrics
	rbac        rbac.Middleware
}

// Deps groups optional collaborators of the handler.
type Deps struct {
	Idempotency IdempotencyGuard
	Audit       AuditRecorder
	Notifier    ReviewNotifier
	Metrics     *observability.Metrics
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *contentrequests.Service, rbac rbac.Middleware, deps Deps) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		validate:    validator.New(),
		idempotency: deps.Idempotency,
		audit:       deps.Audit,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		rbac:        rbac,
	}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Post("/", h.submit)
		r.Get("/pending", h.listPending)
		r.Get("/club/{clubID}", h.listForClub)
		r.Get("/{id}", h.show)
		r.Get("/{id}/history", h.history)
		r.Put("/{id}/approve", h.approve)
		r.Put("/{id}/reject", h.reject)
	})
}

func principal(r *http.Request) rbac.Principal {
	p, _ := rbac.PrincipalFromContext(r.Context())
	return p
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := httpx.DecodeAndValidate(r, h.validate, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			h.fail(w, "content request idempotency", err)
			return
		}
	}

	req, err := h.service.SubmitRequest(r.Context(), p, body.ClubID, body.EventData)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if derr := h.idempotency.Delete(r.Context(), key, idempotencyModule); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.fail(w, "submit content request", err)
		return
	}

	h.metrics.ContentRequestTransition(string(req.Status))
	h.recordAudit(r.Context(), p, "content_request.submit", req)
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListPending(r.Context(), principal(r))
	if err != nil {
		h.fail(w, "list pending content requests", err)
		return
	}
	page, limit := httpx.PageParams(r, 100)
	httpx.JSON(w, http.StatusOK, window(reqs, page, limit))
}

func (h *Handler) listForClub(w http.ResponseWriter, r *http.Request) {
	clubID, err := httpx.IDParam(r, "clubID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, limit := httpx.PageParams(r, 100)
	result, err := h.service.ListForClub(r.Context(), principal(r), clubID, page, limit)
	if err != nil {
		h.fail(w, "list club content requests", err)
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
	req, err := h.service.Get(r.Context(), principal(r), id)
	if err != nil {
		h.fail(w, "get content request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	logs, err := h.service.History(r.Context(), principal(r), id)
	if err != nil {
		h.fail(w, "content request history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, logs)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approve", h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject", h.service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, rbac.Principal, int64) (contentrequests.ContentRequest, error)) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := principal(r)
	req, err := fn(r.Context(), p, id)
	if err != nil {
		h.fail(w, action+" content request", err)
		return
	}

	h.metrics.ContentRequestTransition(string(req.Status))
	h.recordAudit(r.Context(), p, "content_request."+action, req)
	if h.notifier != nil {
		if err := h.notifier.ContentRequestReviewed(r.Context(), req); err != nil {
			h.logger.Error("enqueue review notification", slog.Int64("request_id", req.ID), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) recordAudit(ctx context.Context, p rbac.Principal, action string, req contentrequests.ContentRequest) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   action,
		Entity:   "content_request",
		EntityID: shared.EntityID(req.ID),
		Meta:     map[string]any{"club_id": req.ClubID, "status": req.Status},
	})
	if err != nil {
		h.logger.Warn("audit content request", slog.String("action", action), slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	httpx.Fail(w, h.logger, op, err)
}

type pendingPage struct {
	Items      []contentrequests.ContentRequest `json:"items"`
	Pagination shared.Pagination                `json:"pagination"`
}

func window(reqs []contentrequests.ContentRequest, page, limit int) pendingPage {
	meta := shared.NewPagination(page, limit, len(reqs))
	start := meta.Offset()
	if start < 0 || start > len(reqs) {
		start = len(reqs)
	}
	end := start + meta.PerPage
	if end > len(reqs) {
		end = len(reqs)
	}
	return pendingPage{Items: reqs[start:end], Pagination: meta}
}
