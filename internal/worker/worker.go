// Package worker implements the Upload Worker: given a File row, it
// transitions it to IN_PROGRESS, uploads its bytes via single-PUT or
// parallel multipart, verifies the remote object size, and records the
// terminal state.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/supox/genomics-upload-service/internal/bufpool"
	"github.com/supox/genomics-upload-service/internal/concurrency"
	"github.com/supox/genomics-upload-service/internal/logging"
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/objectstore"
	"github.com/supox/genomics-upload-service/internal/store"
)

// Worker uploads individual files. One Worker is shared across all jobs;
// the global chunk semaphore is the only cross-job shared state it holds.
type Worker struct {
	store          *store.Store
	objectStore    objectstore.Client
	chunkSemaphore *concurrency.Semaphore
	bufPool        *bufpool.Pool
	chunkSize      int64
	log            *logging.Logger
}

// New builds a Worker. chunkSemaphore is the process-wide part-upload
// semaphore (capacity chunks_concurrency); it must be the single shared
// handle constructed by the composition root.
func New(st *store.Store, objectStore objectstore.Client, chunkSemaphore *concurrency.Semaphore, chunkSize int, log *logging.Logger) *Worker {
	return &Worker{
		store:          st,
		objectStore:    objectStore,
		chunkSemaphore: chunkSemaphore,
		bufPool:        bufpool.New(chunkSize),
		chunkSize:      int64(chunkSize),
		log:            log,
	}
}

// UploadFile uploads the given file row's bytes, found under sourceFolder,
// into bucket at key "<upload_job_id>/<path>". Returns true on verified
// success; on any failure the row is left in FAILED with a reason and
// false is returned.
func (w *Worker) UploadFile(ctx context.Context, file *models.File, sourceFolder, bucket string) bool {
	if err := w.store.ReserveFileForUpload(ctx, file.ID); err != nil {
		w.log.Errorf("reserve file %d for upload: %v", file.ID, err)
		return w.fail(ctx, file, fmt.Sprintf("reserve file for upload: %v", err))
	}

	absPath := filepath.Join(sourceFolder, filepath.FromSlash(file.Path))
	f, err := os.Open(absPath)
	if err != nil {
		return w.fail(ctx, file, fmt.Sprintf("source file not found: %v", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return w.fail(ctx, file, fmt.Sprintf("stat source file: %v", err))
	}
	size := info.Size()
	key := file.ObjectKey()

	var uploadErr error
	if size <= w.chunkSize {
		uploadErr = w.objectStore.PutObject(ctx, bucket, key, f, size)
	} else {
		uploadErr = w.multipartUpload(ctx, bucket, key, f, size)
	}
	if uploadErr != nil {
		return w.fail(ctx, file, uploadErr.Error())
	}

	remote, err := w.objectStore.HeadObject(ctx, bucket, key)
	if err != nil {
		return w.fail(ctx, file, err.Error())
	}
	if remote.ContentLength != size {
		return w.fail(ctx, file, "Upload verification failed")
	}

	if err := w.store.MarkUploaded(ctx, file.ID); err != nil {
		w.log.Errorf("mark file %d uploaded: %v", file.ID, err)
		return w.fail(ctx, file, fmt.Sprintf("mark uploaded: %v", err))
	}
	return true
}

// multipartUpload splits the file into chunkSize parts (last part
// smaller), uploads them in parallel bounded by the global chunk
// semaphore, and completes the upload in ascending part-number order. Any
// part failure aborts the multipart upload (best-effort) and propagates
// the original error.
func (w *Worker) multipartUpload(ctx context.Context, bucket, key string, f *os.File, size int64) error {
	uploadID, err := w.objectStore.CreateMultipartUpload(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("create multipart upload: %w", err)
	}

	numParts := int((size + w.chunkSize - 1) / w.chunkSize)
	parts := make([]objectstore.CompletedPart, numParts)

	var wg sync.WaitGroup
	errCh := make(chan error, numParts)

	for i := 0; i < numParts; i++ {
		partNumber := int32(i + 1)
		offset := int64(i) * w.chunkSize
		length := w.chunkSize
		if offset+length > size {
			length = size - offset
		}

		wg.Add(1)
		go func(partNumber int32, offset, length int64) {
			defer wg.Done()

			if err := w.chunkSemaphore.Acquire(ctx); err != nil {
				errCh <- err
				return
			}
			defer w.chunkSemaphore.Release()

			buf := w.bufPool.Get()
			defer w.bufPool.Put(buf)

			n, readErr := f.ReadAt((*buf)[:length], offset)
			if readErr != nil && readErr != io.EOF {
				errCh <- fmt.Errorf("read part %d: %w", partNumber, readErr)
				return
			}

			etag, uploadErr := w.objectStore.UploadPart(ctx, bucket, key, uploadID, partNumber, bytes.NewReader((*buf)[:n]), int64(n))
			if uploadErr != nil {
				errCh <- fmt.Errorf("upload part %d: %w", partNumber, uploadErr)
				return
			}
			parts[partNumber-1] = objectstore.CompletedPart{PartNumber: partNumber, ETag: etag}
		}(partNumber, offset, length)
	}

	wg.Wait()
	close(errCh)

	if partErr, ok := <-errCh; ok {
		_ = w.objectStore.AbortMultipartUpload(ctx, bucket, key, uploadID) // best-effort; swallow abort errors
		return partErr
	}

	return w.objectStore.CompleteMultipartUpload(ctx, bucket, key, uploadID, parts)
}

func (w *Worker) fail(ctx context.Context, file *models.File, reason string) bool {
	if err := w.store.MarkFailed(ctx, file.ID, reason); err != nil {
		w.log.Errorf("mark file %d failed (reason=%q): %v", file.ID, reason, err)
	}
	return false
}
