package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// FakeClient is an in-memory Client double for orchestrator/worker unit
// tests, grounded on the interface-fake pattern used for S3 test doubles
// across the retrieval pack.
type FakeClient struct {
	mu sync.Mutex

	buckets map[string]bool
	objects map[string][]byte // "bucket/key" -> bytes

	uploads map[string]*fakeUpload // uploadID -> in-progress multipart state

	// RejectKeys, when non-empty, causes PutObject/UploadPart/
	// CompleteMultipartUpload to fail for the named "bucket/key" pairs.
	RejectKeys map[string]bool

	// ForbiddenBuckets, when non-empty, causes HeadBucket to fail with
	// ErrBucketForbidden for the named buckets instead of ErrBucketNotFound.
	ForbiddenBuckets map[string]bool

	nextUploadID int
}

type fakeUpload struct {
	bucket, key string
	parts       map[int32][]byte
}

// NewFakeClient creates an empty in-memory object store.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		buckets:          make(map[string]bool),
		objects:          make(map[string][]byte),
		uploads:          make(map[string]*fakeUpload),
		RejectKeys:       make(map[string]bool),
		ForbiddenBuckets: make(map[string]bool),
	}
}

var _ Client = (*FakeClient)(nil)

func objKey(bucket, key string) string { return bucket + "/" + key }

func (f *FakeClient) HeadBucket(_ context.Context, bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buckets[bucket] {
		return nil
	}
	if f.ForbiddenBuckets[bucket] {
		return fmt.Errorf("bucket %s: %w", bucket, ErrBucketForbidden)
	}
	return fmt.Errorf("bucket %s: %w", bucket, ErrBucketNotFound)
}

func (f *FakeClient) CreateBucket(_ context.Context, bucket, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

func (f *FakeClient) PutObject(_ context.Context, bucket, key string, body io.ReadSeeker, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectKeys[objKey(bucket, key)] {
		return fmt.Errorf("simulated put failure for %s/%s", bucket, key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[objKey(bucket, key)] = data
	return nil
}

func (f *FakeClient) CreateMultipartUpload(_ context.Context, bucket, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUploadID++
	id := fmt.Sprintf("upload-%d", f.nextUploadID)
	f.uploads[id] = &fakeUpload{bucket: bucket, key: key, parts: make(map[int32][]byte)}
	return id, nil
}

func (f *FakeClient) UploadPart(_ context.Context, bucket, key, uploadID string, partNumber int32, body io.ReadSeeker, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectKeys[objKey(bucket, key)] {
		return "", fmt.Errorf("simulated upload-part failure for %s/%s", bucket, key)
	}
	up, ok := f.uploads[uploadID]
	if !ok {
		return "", fmt.Errorf("unknown upload id %s", uploadID)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	up.parts[partNumber] = data
	return fmt.Sprintf("etag-%d", partNumber), nil
}

func (f *FakeClient) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []CompletedPart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectKeys[objKey(bucket, key)] {
		return fmt.Errorf("simulated complete failure for %s/%s", bucket, key)
	}
	up, ok := f.uploads[uploadID]
	if !ok {
		return fmt.Errorf("unknown upload id %s", uploadID)
	}

	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	var buf bytes.Buffer
	for _, p := range sorted {
		data, ok := up.parts[p.PartNumber]
		if !ok {
			return fmt.Errorf("missing part %d", p.PartNumber)
		}
		buf.Write(data)
	}
	f.objects[objKey(bucket, key)] = buf.Bytes()
	delete(f.uploads, uploadID)
	return nil
}

func (f *FakeClient) AbortMultipartUpload(_ context.Context, _, _, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploads, uploadID)
	return nil
}

func (f *FakeClient) HeadObject(_ context.Context, bucket, key string) (ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[objKey(bucket, key)]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return ObjectInfo{ContentLength: int64(len(data))}, nil
}
