package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Metrics records processed tasks.
type Metrics interface {
	RecordJob(task, outcome string)
}

// DeliveryNoteJob emits the dispatch notification for a posted delivery note.
type DeliveryNoteJob struct {
	Logger  *slog.Logger
	Metrics Metrics
}

// NewDeliveryNoteJob builds the handler.
func NewDeliveryNoteJob(logger *slog.Logger, metrics Metrics) *DeliveryNoteJob {
	return &DeliveryNoteJob{Logger: logger, Metrics: metrics}
}

// Handle processes TaskDeliveryNotePosted.
func (j *DeliveryNoteJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DeliveryNotePostedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.record("invalid")
		return fmt.Errorf("decode delivery note payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RequestID <= 0 || payload.DeliveryNote == "" {
		j.record("invalid")
		return fmt.Errorf("delivery note payload incomplete: %w", asynq.SkipRetry)
	}
	j.logger().InfoContext(ctx, "delivery note dispatched",
		slog.Int64("request_id", payload.RequestID),
		slog.String("delivery_note", payload.DeliveryNote),
		slog.Int64("movement_id", payload.MovementID),
		slog.Int64("total_qty", payload.TotalQty))
	j.record("ok")
	return nil
}

func (j *DeliveryNoteJob) record(outcome string) {
	if j.Metrics != nil {
		j.Metrics.RecordJob(TaskDeliveryNotePosted, outcome)
	}
}

func (j *DeliveryNoteJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDeliveryNotePosted))
	}
	return slog.Default().With(slog.String("job", TaskDeliveryNotePosted))
}
