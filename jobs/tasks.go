package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campusevents/campusevents/internal/contentrequests"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskContentRequestReviewed fires once a content request leaves pending.
	TaskContentRequestReviewed = "content_request:reviewed"
	// TaskStoriesExpire deactivates stories past their expiry.
	TaskStoriesExpire = "stories:expire"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReviewedPayload carries the reviewed request to the worker.
type ReviewedPayload struct {
	RequestID  int64                  `json:"request_id"`
	ClubID     int64                  `json:"club_id"`
	Status     contentrequests.Status `json:"status"`
	ReviewerID int64                  `json:"reviewer_id"`
	ReviewedAt time.Time              `json:"reviewed_at"`
	EventData  json.RawMessage        `json:"event_data,omitempty"`
}

// NewReviewedPayload snapshots a reviewed request.
func NewReviewedPayload(req contentrequests.ContentRequest) ReviewedPayload {
	payload := ReviewedPayload{
		RequestID: req.ID,
		ClubID:    req.ClubID,
		Status:    req.Status,
		EventData: req.Payload,
	}
	if req.ReviewerID != nil {
		payload.ReviewerID = *req.ReviewerID
	}
	if req.ReviewedAt != nil {
		payload.ReviewedAt = *req.ReviewedAt
	}
	return payload
}

// NewContentRequestReviewedTask constructs the review notification task. The
// task id is derived from the request so a review is only queued once.
func NewContentRequestReviewedTask(payload ReviewedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContentRequestReviewed, data,
		asynq.TaskID(reviewTaskID(payload.RequestID)),
		asynq.MaxRetry(5),
	), nil
}

func reviewTaskID(requestID int64) string {
	return fmt.Sprintf("%s:%d", TaskContentRequestReviewed, requestID)
}

// CleanupPayload configures the idempotency cleanup window.
type CleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// NewStoriesExpireTask constructs the story expiry task.
func NewStoriesExpireTask() *asynq.Task {
	return asynq.NewTask(TaskStoriesExpire, nil)
}
