package objectstore

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestEnsureBucketExistsCreatesWhenMissing(t *testing.T) {
	client := NewFakeClient()
	ctx := context.Background()

	if err := client.HeadBucket(ctx, "my-bucket"); err == nil {
		t.Fatal("expected head bucket to fail before creation")
	}

	if err := EnsureBucketExists(ctx, client, "my-bucket", "us-east-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.HeadBucket(ctx, "my-bucket"); err != nil {
		t.Fatalf("expected bucket to exist after ensure: %v", err)
	}
}

func TestEnsureBucketExistsIsIdempotent(t *testing.T) {
	client := NewFakeClient()
	ctx := context.Background()

	if err := EnsureBucketExists(ctx, client, "b", "us-east-1"); err != nil {
		t.Fatal(err)
	}
	if err := EnsureBucketExists(ctx, client, "b", "us-east-1"); err != nil {
		t.Fatalf("second call should be a no-op success: %v", err)
	}
}

func TestEnsureBucketExistsFailsWithoutCreateOnForbidden(t *testing.T) {
	client := NewFakeClient()
	ctx := context.Background()
	client.ForbiddenBuckets["locked-bucket"] = true

	err := EnsureBucketExists(ctx, client, "locked-bucket", "us-east-1")
	if err == nil {
		t.Fatal("expected forbidden bucket to fail ensure")
	}
	if !errors.Is(err, ErrBucketForbidden) {
		t.Fatalf("expected error to wrap ErrBucketForbidden, got %v", err)
	}
	if err := client.HeadBucket(ctx, "locked-bucket"); err == nil {
		t.Fatal("expected bucket to remain uncreated after forbidden ensure")
	}
}

func TestFakeClientMultipartRoundTrip(t *testing.T) {
	client := NewFakeClient()
	ctx := context.Background()
	client.CreateBucket(ctx, "bucket", "us-east-1")

	uploadID, err := client.CreateMultipartUpload(ctx, "bucket", "job/file.bin")
	if err != nil {
		t.Fatal(err)
	}

	etag1, err := client.UploadPart(ctx, "bucket", "job/file.bin", uploadID, 1, bytes.NewReader([]byte("hello ")), 6)
	if err != nil {
		t.Fatal(err)
	}
	etag2, err := client.UploadPart(ctx, "bucket", "job/file.bin", uploadID, 2, bytes.NewReader([]byte("world")), 5)
	if err != nil {
		t.Fatal(err)
	}

	err = client.CompleteMultipartUpload(ctx, "bucket", "job/file.bin", uploadID, []CompletedPart{
		{PartNumber: 2, ETag: etag2},
		{PartNumber: 1, ETag: etag1},
	})
	if err != nil {
		t.Fatal(err)
	}

	info, err := client.HeadObject(ctx, "bucket", "job/file.bin")
	if err != nil {
		t.Fatal(err)
	}
	if info.ContentLength != 11 {
		t.Fatalf("expected assembled object of length 11, got %d", info.ContentLength)
	}
}

func TestFakeClientRejectKeysFailsUpload(t *testing.T) {
	client := NewFakeClient()
	ctx := context.Background()
	client.CreateBucket(ctx, "bucket", "us-east-1")
	client.RejectKeys["bucket/bad.bin"] = true

	if err := client.PutObject(ctx, "bucket", "bad.bin", bytes.NewReader([]byte("x")), 1); err == nil {
		t.Fatal("expected simulated put failure")
	}
}
