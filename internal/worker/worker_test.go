package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/supox/genomics-upload-service/internal/concurrency"
	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/objectstore"
	"github.com/supox/genomics-upload-service/internal/store"
)

func newTestWorker(t *testing.T, chunkSize int) (*Worker, *store.Store, *objectstore.FakeClient) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	client := objectstore.NewFakeClient()
	client.CreateBucket(context.Background(), "bucket", "us-east-1")

	sem := concurrency.NewSemaphore(4)
	w := New(st, client, sem, chunkSize, logging.NewDefault())
	return w, st, client
}

func writeSourceFile(t *testing.T, dir, rel string, contents []byte) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, contents, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUploadFileSmallUsesSinglePut(t *testing.T) {
	w, st, client := newTestWorker(t, 1024)
	ctx := context.Background()
	sourceDir := t.TempDir()
	writeSourceFile(t, sourceDir, "a.txt", []byte("hello world"))

	st.CreateJob(ctx, "job", sourceDir, "bucket", "*")
	st.ReconcileFile(ctx, "job", "a.txt", 1.0, 11)
	files, _ := st.ListFilesForJob(ctx, "job")

	ok := w.UploadFile(ctx, files[0], sourceDir, "bucket")
	if !ok {
		t.Fatal("expected successful upload")
	}

	info, err := client.HeadObject(ctx, "bucket", "job/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if info.ContentLength != 11 {
		t.Fatalf("expected 11 bytes, got %d", info.ContentLength)
	}

	got, _ := st.ListFilesForJob(ctx, "job")
	if got[0].State != models.FileUploaded {
		t.Fatalf("expected UPLOADED, got %s", got[0].State)
	}
}

func TestUploadFileLargeUsesMultipart(t *testing.T) {
	w, st, client := newTestWorker(t, 16)
	ctx := context.Background()
	sourceDir := t.TempDir()
	content := make([]byte, 100)
	for i := range content {
		content[i] = byte(i % 256)
	}
	writeSourceFile(t, sourceDir, "big.bin", content)

	st.CreateJob(ctx, "job", sourceDir, "bucket", "*")
	st.ReconcileFile(ctx, "job", "big.bin", 1.0, 100)
	files, _ := st.ListFilesForJob(ctx, "job")

	ok := w.UploadFile(ctx, files[0], sourceDir, "bucket")
	if !ok {
		t.Fatal("expected successful multipart upload")
	}

	info, err := client.HeadObject(ctx, "bucket", "job/big.bin")
	if err != nil {
		t.Fatal(err)
	}
	if info.ContentLength != 100 {
		t.Fatalf("expected 100 bytes assembled from parts, got %d", info.ContentLength)
	}
}

func TestUploadFileMissingSourceFails(t *testing.T) {
	w, st, _ := newTestWorker(t, 1024)
	ctx := context.Background()
	sourceDir := t.TempDir()

	st.CreateJob(ctx, "job", sourceDir, "bucket", "*")
	st.ReconcileFile(ctx, "job", "missing.txt", 1.0, 5)
	files, _ := st.ListFilesForJob(ctx, "job")

	ok := w.UploadFile(ctx, files[0], sourceDir, "bucket")
	if ok {
		t.Fatal("expected failure for missing source file")
	}

	got, _ := st.ListFilesForJob(ctx, "job")
	if got[0].State != models.FileFailed || got[0].FailureReason == "" {
		t.Fatalf("expected FAILED with a reason, got %+v", got[0])
	}
}

func TestUploadFilePartFailureAbortsAndFails(t *testing.T) {
	w, st, client := newTestWorker(t, 16)
	ctx := context.Background()
	sourceDir := t.TempDir()
	writeSourceFile(t, sourceDir, "big.bin", make([]byte, 64))

	client.RejectKeys["bucket/job/big.bin"] = true

	st.CreateJob(ctx, "job", sourceDir, "bucket", "*")
	st.ReconcileFile(ctx, "job", "big.bin", 1.0, 64)
	files, _ := st.ListFilesForJob(ctx, "job")

	ok := w.UploadFile(ctx, files[0], sourceDir, "bucket")
	if ok {
		t.Fatal("expected failure due to simulated part rejection")
	}

	got, _ := st.ListFilesForJob(ctx, "job")
	if got[0].State != models.FileFailed {
		t.Fatalf("expected FAILED, got %s", got[0].State)
	}
}

func TestUploadFileObjectKeyJoinsJobAndPath(t *testing.T) {
	w, st, client := newTestWorker(t, 1024)
	ctx := context.Background()
	sourceDir := t.TempDir()
	writeSourceFile(t, sourceDir, filepath.Join("nested", "a.txt"), []byte("hi"))

	st.CreateJob(ctx, "job-42", sourceDir, "bucket", "*")
	st.ReconcileFile(ctx, "job-42", "nested/a.txt", 1.0, 2)
	files, _ := st.ListFilesForJob(ctx, "job-42")

	if !w.UploadFile(ctx, files[0], sourceDir, "bucket") {
		t.Fatal("expected success")
	}
	if _, err := client.HeadObject(ctx, "bucket", "job-42/nested/a.txt"); err != nil {
		t.Fatalf("expected object at job-scoped key: %v", err)
	}
}
