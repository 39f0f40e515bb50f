// Package monitor implements the periodic loop that keeps completed jobs
// aligned with their source directory: on every tick it re-invokes the
// orchestrator in re-scan mode for every job whose persisted state is
// COMPLETED.
package monitor

import (
	"context"
	"os"
	"time"

	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/store"
)

// orchestrator is the subset of *orchestrator.Orchestrator the monitor
// depends on.
type orchestrator interface {
	ProcessUploadJob(ctx context.Context, id string, recentlyChangedFilter bool) bool
}

// Monitor runs the cooperative re-scan loop.
type Monitor struct {
	store        *store.Store
	orchestrator orchestrator
	interval     time.Duration
	log          *logging.Logger
}

// New builds a Monitor.
func New(st *store.Store, orch orchestrator, interval time.Duration, log *logging.Logger) *Monitor {
	return &Monitor{store: st, orchestrator: orch, interval: interval, log: log}
}

// Run blocks, scanning immediately and then every interval, until ctx is
// cancelled (grounded on the original's _monitor_loop: scan, then sleep,
// repeat). Only COMPLETED jobs are candidates for monitored re-scan
// (source behavior, preserved: jobs stuck IN_PROGRESS rely on startup
// recovery instead). Jobs within a tick are processed sequentially, and a
// tick never starts before the previous one finished.
func (m *Monitor) Run(ctx context.Context) {
	m.tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	jobs, err := m.store.ListJobsByState(ctx, models.JobCompleted)
	if err != nil {
		m.log.Errorf("monitor tick: list completed jobs: %v", err)
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(job.SourceFolder); err != nil {
			m.log.Warnf("monitor tick: source folder %s missing for job %s, skipping", job.SourceFolder, job.ID)
			continue
		}
		m.orchestrator.ProcessUploadJob(ctx, job.ID, true)
	}
}
