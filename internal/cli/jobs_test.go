package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/store"
)

type fakeOrchestrator struct {
	processed []string
	retried   []string
}

func (f *fakeOrchestrator) ProcessUploadJob(_ context.Context, id string, _ bool) bool {
	f.processed = append(f.processed, id)
	return true
}

func (f *fakeOrchestrator) RetryJob(_ context.Context, id string) bool {
	f.retried = append(f.retried, id)
	return true
}

func newTestApp(t *testing.T) (*App, *fakeOrchestrator) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	orch := &fakeOrchestrator{}
	return &App{Store: st, Orchestrator: orch, Log: logging.NewDefault()}, orch
}

func TestJobsCreateProcessesAndPrintsStatus(t *testing.T) {
	app, orch := newTestApp(t)

	cmd := newJobsCreateCmd(app)
	cmd.SetArgs([]string{"--source", t.TempDir(), "--bucket", "my-bucket"})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("jobs create: %v", err)
	}
	if len(orch.processed) != 1 {
		t.Fatalf("expected job to be processed once, got %d", len(orch.processed))
	}
	if out.Len() == 0 {
		t.Fatal("expected status output")
	}
}

func TestJobsCreateRequiresSourceAndBucket(t *testing.T) {
	app, _ := newTestApp(t)

	cmd := newJobsCreateCmd(app)
	cmd.SetArgs([]string{"--bucket", "only-bucket"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when --source is missing")
	}
}

func TestJobsRetryCallsOrchestrator(t *testing.T) {
	app, orch := newTestApp(t)

	job, err := app.Store.CreateJob(context.Background(), "job-1", t.TempDir(), "bucket", "*")
	if err != nil {
		t.Fatal(err)
	}

	cmd := newJobsRetryCmd(app)
	cmd.SetArgs([]string{job.ID})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	if len(orch.retried) != 1 || orch.retried[0] != job.ID {
		t.Fatalf("expected job %s to be retried, got %+v", job.ID, orch.retried)
	}
}

func TestJobsStatusReportsEmptyJobAsCompleted(t *testing.T) {
	app, _ := newTestApp(t)

	job, err := app.Store.CreateJob(context.Background(), "job-2", t.TempDir(), "bucket", "*")
	if err != nil {
		t.Fatal(err)
	}

	cmd := newJobsStatusCmd(app)
	cmd.SetArgs([]string{job.ID})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("jobs status: %v", err)
	}
	if out.Len() == 0 {
		t.Fatal("expected status output")
	}
	if !strings.Contains(out.String(), "state=COMPLETED") {
		t.Fatalf("expected empty job to be reported COMPLETED, got %q", out.String())
	}
}
