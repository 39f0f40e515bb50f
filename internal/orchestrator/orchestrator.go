// Package orchestrator implements the job state machine: scan, reconcile
// file rows against the filesystem, schedule workers under a per-job
// concurrency bound, and derive the job's terminal state.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/supox/genomics-upload-service/internal/concurrency"
	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/objectstore"
	"github.com/supox/genomics-upload-service/internal/progress"
	"github.com/supox/genomics-upload-service/internal/scanner"
	"github.com/supox/genomics-upload-service/internal/store"
	"github.com/supox/genomics-upload-service/internal/worker"
)

// Orchestrator drives UploadJob lifecycles. worker and objectStore are
// injected dependencies, not package-level singletons, per the redesign
// note against global singleton services.
type Orchestrator struct {
	store              *store.Store
	objectStore        objectstore.Client
	worker             *worker.Worker
	region             string
	workerConcurrency  int
	stabilityThreshold time.Duration
	log                *logging.Logger
}

// New builds an Orchestrator.
func New(st *store.Store, objectStore objectstore.Client, w *worker.Worker, region string, workerConcurrency int, stabilityThreshold time.Duration, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:              st,
		objectStore:        objectStore,
		worker:             w,
		region:             region,
		workerConcurrency:  workerConcurrency,
		stabilityThreshold: stabilityThreshold,
		log:                log,
	}
}

// ProcessUploadJob is the unified path for initial processing, monitored
// re-scan, and recovery. When recentlyChangedFilter is true, files whose
// mtime is younger than the configured stability threshold are skipped
// this cycle.
func (o *Orchestrator) ProcessUploadJob(ctx context.Context, id string, recentlyChangedFilter bool) bool {
	job, err := o.store.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			o.log.Errorf("process upload job: job %s not found", id)
		} else {
			o.log.Errorf("process upload job: load job %s: %v", id, err)
		}
		return false
	}

	if err := o.store.SetJobState(ctx, id, models.JobInProgress); err != nil {
		o.log.Errorf("process upload job: set in-progress %s: %v", id, err)
		return false
	}

	if err := objectstore.EnsureBucketExists(ctx, o.objectStore, job.DestinationBucket, o.region); err != nil {
		o.log.Errorf("process upload job: ensure bucket %s for job %s: %v", job.DestinationBucket, id, err)
		if setErr := o.store.SetJobState(ctx, id, models.JobFailed); setErr != nil {
			o.log.Errorf("process upload job: set failed %s: %v", id, setErr)
		}
		return false
	}

	current, err := scanner.Scan(job.SourceFolder, job.Pattern)
	if err != nil {
		o.log.Errorf("process upload job: scan %s: %v", job.SourceFolder, err)
	}
	if len(current) == 0 {
		if err := o.store.SetJobState(ctx, id, models.JobCompleted); err != nil {
			o.log.Errorf("process upload job: set completed %s: %v", id, err)
		}
		return true
	}

	o.reconcile(ctx, id, current, recentlyChangedFilter)

	enqueued, err := o.store.ListEnqueuedFiles(ctx, id)
	if err != nil {
		o.log.Errorf("process upload job: list enqueued files %s: %v", id, err)
	} else {
		o.uploadConcurrently(ctx, enqueued, job.SourceFolder, job.DestinationBucket)
	}

	return o.finalizeState(ctx, id)
}

// reconcile implements the per-path branch logic of the reconciliation
// step, committing every row mutation before any upload begins.
func (o *Orchestrator) reconcile(ctx context.Context, jobID string, current map[string]scanner.FileStat, recentlyChangedFilter bool) {
	now := time.Now()
	for path, stat := range current {
		if recentlyChangedFilter {
			mtime := time.Unix(0, int64(stat.Mtime*float64(time.Second)))
			if now.Sub(mtime) < o.stabilityThreshold {
				continue
			}
		}
		if _, err := o.store.ReconcileFile(ctx, jobID, path, stat.Mtime, stat.Size); err != nil {
			o.log.Errorf("reconcile file %s/%s: %v", jobID, path, err)
		}
	}
}

// uploadConcurrently submits every enqueued row to the worker through a
// per-job semaphore bounding concurrency to workerConcurrency. Individual
// worker failures do not abort peers.
func (o *Orchestrator) uploadConcurrently(ctx context.Context, files []*models.File, sourceFolder, bucket string) {
	sem := concurrency.NewSemaphore(o.workerConcurrency)
	var wg sync.WaitGroup

	for _, f := range files {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx); err != nil {
				return
			}
			defer sem.Release()
			o.worker.UploadFile(ctx, f, sourceFolder, bucket)
		}()
	}
	wg.Wait()
}

// finalizeState recomputes terminal job state from the full set of file
// rows and persists it.
func (o *Orchestrator) finalizeState(ctx context.Context, jobID string) bool {
	counts, err := o.store.FileCounts(ctx, jobID)
	if err != nil {
		o.log.Errorf("finalize state: file counts %s: %v", jobID, err)
		return false
	}

	proj := progress.Compute(counts, models.JobInProgress)
	if err := o.store.SetJobState(ctx, jobID, proj.State); err != nil {
		o.log.Errorf("finalize state: set state %s: %v", jobID, err)
		return false
	}
	return true
}

// RetryJob deletes every PENDING/IN_PROGRESS/FAILED file row for id, then
// re-runs ProcessUploadJob as a full re-scan.
func (o *Orchestrator) RetryJob(ctx context.Context, id string) bool {
	if err := o.store.ResetFilesForRetry(ctx, id); err != nil {
		o.log.Errorf("retry job: reset files %s: %v", id, err)
		return false
	}
	return o.ProcessUploadJob(ctx, id, false)
}
