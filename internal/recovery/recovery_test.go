package recovery

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/store"
)

type recordingOrchestrator struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newRecordingOrchestrator() *recordingOrchestrator {
	return &recordingOrchestrator{seen: make(map[string]bool)}
}

func (r *recordingOrchestrator) RetryJob(_ context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[id] = true
	return true
}

func (r *recordingOrchestrator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestResumeReEnqueuesNonTerminalJobsOnly(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	pending, _ := st.CreateJob(ctx, "pending", "/data", "bucket", "*")
	inProgress, _ := st.CreateJob(ctx, "in-progress", "/data", "bucket", "*")
	st.SetJobState(ctx, inProgress.ID, models.JobInProgress)
	completed, _ := st.CreateJob(ctx, "completed", "/data", "bucket", "*")
	st.SetJobState(ctx, completed.ID, models.JobCompleted)

	orch := newRecordingOrchestrator()
	if err := Resume(ctx, st, orch, logging.NewDefault()); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && orch.count() < 2 {
		time.Sleep(time.Millisecond)
	}

	if orch.count() != 2 {
		t.Fatalf("expected 2 non-terminal jobs retried, got %d", orch.count())
	}
	orch.mu.Lock()
	defer orch.mu.Unlock()
	if !orch.seen[pending.ID] || !orch.seen[inProgress.ID] {
		t.Fatalf("expected pending and in-progress jobs retried, got %+v", orch.seen)
	}
	if orch.seen[completed.ID] {
		t.Fatal("did not expect completed job to be retried")
	}
}
