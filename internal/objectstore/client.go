// Package objectstore wraps the S3-compatible object-store API the
// orchestrator and upload worker depend on: bucket existence, single-PUT,
// and the multipart upload protocol (create/upload-part/complete/abort),
// plus head-object verification.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrBucketNotFound is returned by HeadBucket when the bucket does not
// exist (HTTP 404). ErrBucketForbidden is returned when the caller lacks
// permission to inspect it (HTTP 403) — the bucket may or may not exist,
// but creating it is not attempted. Any other HeadBucket error is returned
// without either sentinel, wrapping the underlying error.
var (
	ErrBucketNotFound  = errors.New("objectstore: bucket not found")
	ErrBucketForbidden = errors.New("objectstore: bucket access forbidden")
)

// CompletedPart identifies one finished part of a multipart upload.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// ObjectInfo is the subset of head-object metadata the worker verifies
// against.
type ObjectInfo struct {
	ContentLength int64
}

// Client is the object-store surface the rest of the service depends on.
// All methods are blocking network I/O; callers are responsible for
// off-goroutine execution where needed. Implementations must be safe for
// concurrent use.
type Client interface {
	HeadBucket(ctx context.Context, bucket string) error
	CreateBucket(ctx context.Context, bucket, region string) error
	PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64) error
	CreateMultipartUpload(ctx context.Context, bucket, key string) (uploadID string, err error)
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body io.ReadSeeker, size int64) (etag string, err error)
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
	HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// EnsureBucketExists performs a HeadBucket check first and only calls
// CreateBucket when that check reports the bucket missing, making it cheap
// to call on every process_upload_job invocation (the source service's
// behavior, preserved because it is what keeps resume/re-scan cheap on the
// happy path). A 403 (forbidden) or any other HeadBucket error fails
// immediately without attempting creation, matching the original's
// 404/403/other distinction.
func EnsureBucketExists(ctx context.Context, client Client, bucket, region string) error {
	err := client.HeadBucket(ctx, bucket)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBucketNotFound) {
		return client.CreateBucket(ctx, bucket, region)
	}
	return fmt.Errorf("ensure bucket exists %s: %w", bucket, err)
}
