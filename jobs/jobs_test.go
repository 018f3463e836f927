package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type countingMetrics map[string]int

func (m countingMetrics) RecordJob(task, outcome string) { m[task+":"+outcome]++ }

type fakeCleaner struct {
	olderThan time.Duration
	removed   int64
	err       error
}

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return f.removed, f.err
}

func TestNotifyDeliveryNotePostedEnqueuesPayload(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake}

	require.NoError(t, client.NotifyDeliveryNotePosted(context.Background(), 7, "DN-20240102-000123", 11, 4))
	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TaskDeliveryNotePosted, fake.tasks[0].Type())

	var payload DeliveryNotePostedPayload
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &payload))
	assert.Equal(t, DeliveryNotePostedPayload{RequestID: 7, DeliveryNote: "DN-20240102-000123", MovementID: 11, TotalQty: 4}, payload)
}

func TestNotifyDeliveryNotePostedIgnoresDuplicates(t *testing.T) {
	client := &Client{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
	require.NoError(t, client.NotifyDeliveryNotePosted(context.Background(), 7, "DN-1", 11, 4))

	boom := errors.New("redis down")
	client = &Client{client: &fakeEnqueuer{err: boom}}
	require.ErrorIs(t, client.NotifyDeliveryNotePosted(context.Background(), 7, "DN-1", 11, 4), boom)
}

func TestDeliveryNoteJobHandle(t *testing.T) {
	metrics := countingMetrics{}
	job := NewDeliveryNoteJob(nil, metrics)

	task, err := NewDeliveryNotePostedTask(DeliveryNotePostedPayload{RequestID: 3, DeliveryNote: "DN-9", MovementID: 1, TotalQty: 2})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	err = job.Handle(context.Background(), asynq.NewTask(TaskDeliveryNotePosted, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	err = job.Handle(context.Background(), asynq.NewTask(TaskDeliveryNotePosted, []byte(`{"request_id":3}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)

	assert.Equal(t, 1, metrics[TaskDeliveryNotePosted+":ok"])
	assert.Equal(t, 2, metrics[TaskDeliveryNotePosted+":invalid"])
}

func TestIdempotencyCleanupJob(t *testing.T) {
	cleaner := &fakeCleaner{removed: 12}
	metrics := countingMetrics{}
	job := NewIdempotencyCleanupJob(cleaner, nil, metrics)

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, cleaner.olderThan)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, DefaultIdempotencyRetention, cleaner.olderThan)

	cleaner.err = errors.New("statement timeout")
	require.Error(t, job.Handle(context.Background(), task))
	assert.Equal(t, 2, metrics[TaskIdempotencyCleanup+":ok"])
	assert.Equal(t, 1, metrics[TaskIdempotencyCleanup+":error"])
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	h := NewHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}
