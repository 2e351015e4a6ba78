package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/campusevents/campusevents/internal/contentrequests"
	"github.com/campusevents/campusevents/internal/events"
	jobmetrics "github.com/campusevents/campusevents/internal/jobs"
	"github.com/campusevents/campusevents/internal/shared"
)

// EventPublisher turns an approved event draft into a live event. Publishing
// is keyed on the request id so a retried task yields the same event.
type EventPublisher interface {
	PublishDraft(ctx context.Context, requestID, clubID int64, payload json.RawMessage) (events.Event, error)
}

// ContentReviewJob notifies about a finished review and publishes approved
// event drafts.
type ContentReviewJob struct {
	Events  EventPublisher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewContentReviewJob wires dependencies for the review handler.
func NewContentReviewJob(publisher EventPublisher, logger *slog.Logger, metrics *jobmetrics.Metrics) *ContentReviewJob {
	return &ContentReviewJob{Events: publisher, Logger: logger, Metrics: metrics}
}

// Handle processes TaskContentRequestReviewed tasks.
func (j *ContentReviewJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("content review: handler not configured")
	}
	var payload ReviewedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode review payload: %v: %w", err, asynq.SkipRetry)
	}
	if !payload.Status.IsTerminal() {
		return fmt.Errorf("request %d is %s: %w", payload.RequestID, payload.Status, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskContentRequestReviewed)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskContentRequestReviewed).With(
		slog.Int64("request_id", payload.RequestID),
		slog.Int64("club_id", payload.ClubID),
		slog.Int64("reviewer_id", payload.ReviewerID),
		slog.String("status", string(payload.Status)),
	)
	logger.Info("content request reviewed")

	if payload.Status != contentrequests.StatusApproved || j.Events == nil || len(payload.EventData) == 0 {
		return nil
	}
	event, err := j.Events.PublishDraft(ctx, payload.RequestID, payload.ClubID, payload.EventData)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			logger.Warn("approved content is not a publishable event", slog.Any("error", err))
			return nil
		}
		logger.Error("publish approved event", slog.Any("error", err))
		return err
	}
	logger.Info("published approved event", slog.Int64("event_id", event.ID))
	return nil
}
