package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDeliveryNotePosted announces goods dispatched under a delivery note.
	TaskDeliveryNotePosted = "spares:delivery_note_posted"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// DeliveryNotePostedPayload identifies one dispatched delivery note.
type DeliveryNotePostedPayload struct {
	RequestID    int64  `json:"request_id"`
	DeliveryNote string `json:"delivery_note"`
	MovementID   int64  `json:"movement_id"`
	TotalQty     int64  `json:"total_qty"`
}

// NewDeliveryNotePostedTask builds the task. The delivery note number is the
// task id so a repeated enqueue is dropped by the broker.
func NewDeliveryNotePostedTask(payload DeliveryNotePostedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryNotePosted, data,
		asynq.TaskID(TaskDeliveryNotePosted+":"+payload.DeliveryNote),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
	), nil
}

// IdempotencyCleanupPayload controls the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}
