package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campusevents/campusevents/internal/jobs"
)

// DefaultIdempotencyRetention is how long idempotency keys are kept when the
// task payload does not say otherwise.
const DefaultIdempotencyRetention = 24 * time.Hour

// StoryExpirer deactivates stories past their expiry.
type StoryExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// KeyPruner deletes idempotency keys older than a cutoff.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// StoryExpiryJob runs the periodic story expiry.
type StoryExpiryJob struct {
	Stories StoryExpirer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskStoriesExpire tasks.
func (j *StoryExpiryJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Stories == nil {
		return errors.New("stories expire: handler not configured")
	}
	tracker := j.Metrics.Track(TaskStoriesExpire)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskStoriesExpire)
	expired, err := j.Stories.ExpireStale(ctx)
	if err != nil {
		logger.Error("expire stories", slog.Any("error", err))
		return err
	}
	j.Metrics.AddAffected(TaskStoriesExpire, expired)
	if expired > 0 {
		logger.Info("deactivated expired stories", slog.Int64("count", expired))
	}
	return nil
}

// IdempotencyCleanupJob prunes stale idempotency keys.
type IdempotencyCleanupJob struct {
	Keys    KeyPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	payload := CleanupPayload{OlderThan: DefaultIdempotencyRetention}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode cleanup payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.OlderThan <= 0 {
		payload.OlderThan = DefaultIdempotencyRetention
	}

	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskIdempotencyCleanup)
	removed, err := j.Keys.Cleanup(ctx, payload.OlderThan)
	if err != nil {
		logger.Error("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	j.Metrics.AddAffected(TaskIdempotencyCleanup, removed)
	logger.Info("pruned idempotency keys", slog.Int64("count", removed), slog.Duration("older_than", payload.OlderThan))
	return nil
}

func jobLogger(logger *slog.Logger, task string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", task))
}
