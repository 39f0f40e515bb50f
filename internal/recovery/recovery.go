// Package recovery revives half-finished jobs at process start: every job
// not in a terminal state is re-enqueued through the orchestrator's retry
// path before the service accepts external work.
package recovery

import (
	"context"

	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/store"
)

// orchestrator is the subset of *orchestrator.Orchestrator recovery needs.
type orchestrator interface {
	RetryJob(ctx context.Context, id string) bool
}

// Resume finds every UploadJob with persisted state PENDING or
// IN_PROGRESS and schedules RetryJob for each as an independent
// goroutine. Recovery is fire-and-forget: Resume returns once every job
// has been scheduled, even if individual recoveries later fail.
func Resume(ctx context.Context, st *store.Store, orch orchestrator, log *logging.Logger) error {
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	jobs, err := st.ListJobsByState(ctx, models.JobPending, models.JobInProgress)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		jobID := job.ID
		go func() {
			if !orch.RetryJob(ctx, jobID) {
				log.Errorf("recovery: retry job %s did not complete successfully", jobID)
			}
		}()
	}
	return nil
}
