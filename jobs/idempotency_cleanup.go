package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultIdempotencyRetention applies when the payload carries none.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// KeyCleaner deletes idempotency keys older than a cutoff.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob prunes reception and adjustment keys.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics Metrics
}

// NewIdempotencyCleanupJob builds the handler.
func NewIdempotencyCleanupJob(store KeyCleaner, logger *slog.Logger, metrics Metrics) *IdempotencyCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			j.record("invalid")
			return asynq.SkipRetry
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultIdempotencyRetention
	}
	removed, err := j.Store.Cleanup(ctx, payload.Retention)
	if err != nil {
		j.record("error")
		j.Logger.Error("idempotency cleanup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("idempotency keys pruned",
		slog.Int64("removed", removed),
		slog.Duration("retention", payload.Retention))
	j.record("ok")
	return nil
}

func (j *IdempotencyCleanupJob) record(outcome string) {
	if j.Metrics != nil {
		j.Metrics.RecordJob(TaskIdempotencyCleanup, outcome)
	}
}
