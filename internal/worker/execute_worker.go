package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/rdmlabs/agent-api/internal/service"
)

// ExecuteWorker processes job execution tasks enqueued after payment
// confirmation.
type ExecuteWorker struct {
	jobService *service.JobService
}

// NewExecuteWorker creates a new execute worker.
func NewExecuteWorker(jobService *service.JobService) *ExecuteWorker {
	return &ExecuteWorker{jobService: jobService}
}

// ProcessTask handles one execution task. Execution failures are recorded on
// the job record by the service; they are not surfaced to asynq as retryable
// errors because a paid job is executed at most once.
func (w *ExecuteWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.ExecuteTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Executing job: %s", payload.JobID)

	if err := w.jobService.RunJob(ctx, payload.JobID); err != nil {
		// The job is already marked failed; log and acknowledge.
		log.Printf("Job %s execution ended with error: %v", payload.JobID, err)
	}
	return nil
}
