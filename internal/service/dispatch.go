package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeExecute runs the execute→settle chain for a confirmed job.
	TaskTypeExecute = "job:execute"

	// QueueExecute is the asynq queue execute tasks go to.
	QueueExecute = "execute"
)

// Dispatcher hands a payment-confirmed job to the execution worker. The
// production implementation enqueues onto asynq; tests substitute an inline
// dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// ExecuteTaskPayload is the asynq task payload.
type ExecuteTaskPayload struct {
	JobID string `json:"jobId"`
}

// AsynqDispatcher enqueues execute tasks.
type AsynqDispatcher struct {
	client *asynq.Client
}

// NewAsynqDispatcher creates a dispatcher over an asynq client.
func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

// Dispatch enqueues the execute task. MaxRetry is zero: a failed execution
// is terminal for the job, never re-queued.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, jobID string) error {
	data, err := json.Marshal(ExecuteTaskPayload{JobID: jobID})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeExecute, data)
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueExecute),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}
