// Package cli is the composition root's command surface: it wires already
// constructed dependencies (store, orchestrator, monitor) into the cobra
// command tree the uploadsvc binary executes.
package cli

import (
	"context"

	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/recovery"
	"github.com/supox/genomics-upload-service/internal/store"
)

// orchestrator is the subset of *orchestrator.Orchestrator the CLI drives
// directly. Recovery and monitor depend on their own narrower views of it.
type orchestrator interface {
	ProcessUploadJob(ctx context.Context, id string, recentlyChangedFilter bool) bool
	RetryJob(ctx context.Context, id string) bool
}

// monitorLoop is the subset of *monitor.Monitor serve needs.
type monitorLoop interface {
	Run(ctx context.Context)
}

// App bundles the dependencies every subcommand needs. It is built once by
// cmd/uploadsvc/main.go and threaded through the command tree.
type App struct {
	Store        *store.Store
	Orchestrator orchestrator
	Monitor      monitorLoop
	Log          *logging.Logger
}

// resumePending runs startup recovery, re-enqueuing every non-terminal job
// before serve begins accepting monitor ticks.
func (a *App) resumePending(ctx context.Context) error {
	return recovery.Resume(ctx, a.Store, a.Orchestrator, a.Log)
}
