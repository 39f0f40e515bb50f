// Command uploadsvc scans source folders, uploads new or changed files to
// an S3-compatible object store, and tracks per-job progress.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/supox/genomics-upload-service/internal/cli"
	"github.com/supox/genomics-upload-service/internal/concurrency"
	"github.com/supox/genomics-upload-service/internal/config"
	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/monitor"
	"github.com/supox/genomics-upload-service/internal/objectstore"
	"github.com/supox/genomics-upload-service/internal/orchestrator"
	"github.com/supox/genomics-upload-service/internal/store"
	"github.com/supox/genomics-upload-service/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "uploadsvc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	log := logging.New(logging.ParseLevel(cfg.LogLevel))

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	objectStore, err := objectstore.NewS3Client(context.Background(), cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSRegion, cfg.AWSEndpointURL)
	if err != nil {
		return fmt.Errorf("build object store client: %w", err)
	}

	// A single process-wide semaphore bounds total in-flight multipart
	// parts across every concurrent job; worker concurrency below is
	// scoped per job instead.
	chunkSemaphore := concurrency.NewSemaphore(cfg.ChunksConcurrency)

	w := worker.New(st, objectStore, chunkSemaphore, cfg.ChunkSize, log)
	orch := orchestrator.New(st, objectStore, w, cfg.AWSRegion, cfg.WorkerConcurrency, cfg.FileStabilityThreshold, log)
	mon := monitor.New(st, orch, cfg.FileMonitorInterval, log)

	app := &cli.App{
		Store:        st,
		Orchestrator: orch,
		Monitor:      mon,
		Log:          log,
	}

	return cli.Execute(app)
}
