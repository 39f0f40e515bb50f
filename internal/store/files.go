package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/supox/genomics-upload-service/internal/models"
)

// ErrFileNotFound is returned when a lookup finds no matching file row.
var ErrFileNotFound = errors.New("store: file not found")

// ReconcileAction reports what ReconcileFile did to a row. The orchestrator
// does not consult it: after reconciling, it uploads every PENDING row of the
// job as listed by ListEnqueuedFiles.
type ReconcileAction int

const (
	// ReconcileSkipped means the row was already UPLOADED with a matching
	// fingerprint; no upload is needed.
	ReconcileSkipped ReconcileAction = iota
	// ReconcileEnqueued means the row is new, modified, or was reset to
	// PENDING and should be uploaded this cycle.
	ReconcileEnqueued
)

// ReconcileFile implements the per-path branch of the orchestrator's
// reconciliation step (spec §4.4 step 5): insert a new PENDING row, skip an
// unchanged UPLOADED row, refresh-and-reset a changed UPLOADED row, or
// reset a non-UPLOADED row to PENDING without refreshing its fingerprint.
// The read-then-write is run inside a single sql.Tx so a concurrent
// reconcile of the same path can't observe or clobber a half-applied
// decision.
func (s *Store) ReconcileFile(ctx context.Context, jobID, path string, mtime float64, size int64) (ReconcileAction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: begin tx: %w", jobID, path, err)
	}
	defer tx.Rollback()

	action, err := reconcileFileTx(ctx, tx, jobID, path, mtime, size)
	if err != nil {
		return ReconcileSkipped, err
	}
	if err := tx.Commit(); err != nil {
		return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: commit: %w", jobID, path, err)
	}
	return action, nil
}

func reconcileFileTx(ctx context.Context, tx *sql.Tx, jobID, path string, mtime float64, size int64) (ReconcileAction, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, state, mtime, size FROM files WHERE upload_job_id = ? AND path = ?`, jobID, path)

	var (
		id         int64
		state      string
		existingMt float64
		existingSz int64
	)
	err := row.Scan(&id, &state, &existingMt, &existingSz)
	now := nowString()

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, insertErr := tx.ExecContext(ctx, `
			INSERT INTO files (upload_job_id, path, state, failure_reason, mtime, size, created_at, updated_at)
			VALUES (?, ?, ?, '', ?, ?, ?, ?)`,
			jobID, path, string(models.FilePending), mtime, size, now, now,
		)
		if insertErr != nil {
			return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: %w", jobID, path, insertErr)
		}
		return ReconcileEnqueued, nil

	case err != nil:
		return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: %w", jobID, path, err)
	}

	fileState, parseErr := models.ParseFileState(state)
	if parseErr != nil {
		return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: %w", jobID, path, parseErr)
	}

	if fileState == models.FileUploaded {
		if existingMt == mtime && existingSz == size {
			return ReconcileSkipped, nil
		}
		_, updErr := tx.ExecContext(ctx, `
			UPDATE files SET state = ?, failure_reason = '', mtime = ?, size = ?, updated_at = ? WHERE id = ?`,
			string(models.FilePending), mtime, size, now, id,
		)
		if updErr != nil {
			return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: %w", jobID, path, updErr)
		}
		return ReconcileEnqueued, nil
	}

	// PENDING/IN_PROGRESS/FAILED: reset to PENDING without refreshing the
	// mtime/size fingerprint (spec open question: preserved as specified).
	_, updErr := tx.ExecContext(ctx, `
		UPDATE files SET state = ?, failure_reason = '', updated_at = ? WHERE id = ?`,
		string(models.FilePending), now, id,
	)
	if updErr != nil {
		return ReconcileSkipped, fmt.Errorf("reconcile file %s/%s: %w", jobID, path, updErr)
	}
	return ReconcileEnqueued, nil
}

// ListEnqueuedFiles returns every PENDING file row for a job, the set the
// orchestrator hands to the worker pool after committing the reconciliation
// batch.
func (s *Store) ListEnqueuedFiles(ctx context.Context, jobID string) ([]*models.File, error) {
	return s.queryFiles(ctx, `
		SELECT id, upload_job_id, path, state, failure_reason, mtime, size, created_at, updated_at
		FROM files WHERE upload_job_id = ? AND state = ?`, jobID, string(models.FilePending))
}

// ListFilesForJob returns every file row for a job, regardless of state.
func (s *Store) ListFilesForJob(ctx context.Context, jobID string) ([]*models.File, error) {
	return s.queryFiles(ctx, `
		SELECT id, upload_job_id, path, state, failure_reason, mtime, size, created_at, updated_at
		FROM files WHERE upload_job_id = ?`, jobID)
}

func (s *Store) queryFiles(ctx context.Context, query string, args ...interface{}) ([]*models.File, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []*models.File
	for rows.Next() {
		f := &models.File{}
		var state, createdAt, updatedAt string
		if err := rows.Scan(&f.ID, &f.UploadJobID, &f.Path, &state, &f.FailureReason, &f.Mtime, &f.Size, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		fileState, err := models.ParseFileState(state)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		f.State = fileState
		f.CreatedAt = parseTime(createdAt)
		f.UpdatedAt = parseTime(updatedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

// ReserveFileForUpload transitions a file row from PENDING to IN_PROGRESS.
// Replaces ORM object mutation per the redesign note.
func (s *Store) ReserveFileForUpload(ctx context.Context, fileID int64) error {
	return s.setFileState(ctx, fileID, models.FileInProgress, "")
}

// MarkUploaded transitions a file row to UPLOADED.
func (s *Store) MarkUploaded(ctx context.Context, fileID int64) error {
	return s.setFileState(ctx, fileID, models.FileUploaded, "")
}

// MarkFailed transitions a file row to FAILED with the given reason.
func (s *Store) MarkFailed(ctx context.Context, fileID int64, reason string) error {
	return s.setFileState(ctx, fileID, models.FileFailed, reason)
}

func (s *Store) setFileState(ctx context.Context, fileID int64, state models.FileState, failureReason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE files SET state = ?, failure_reason = ?, updated_at = ? WHERE id = ?`,
		string(state), failureReason, nowString(), fileID,
	)
	if err != nil {
		return fmt.Errorf("set file state %d: %w", fileID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set file state %d: %w", fileID, err)
	}
	if n == 0 {
		return ErrFileNotFound
	}
	return nil
}

// ResetFilesForRetry deletes every PENDING/IN_PROGRESS/FAILED file row for a
// job, the precondition for retry_job's subsequent full re-scan.
func (s *Store) ResetFilesForRetry(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM files WHERE upload_job_id = ? AND state IN (?, ?, ?)`,
		jobID, string(models.FilePending), string(models.FileInProgress), string(models.FileFailed),
	)
	if err != nil {
		return fmt.Errorf("reset files for retry %s: %w", jobID, err)
	}
	return nil
}

// FileCounts is the read-only aggregate the progress projector consumes.
type FileCounts struct {
	Total    int
	Uploaded int
	Failed   int
}

// FileCounts computes total/uploaded/failed counts for a job in one query.
func (s *Store) FileCounts(ctx context.Context, jobID string) (FileCounts, error) {
	var counts FileCounts
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN state = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN state = ? THEN 1 ELSE 0 END)
		FROM files WHERE upload_job_id = ?`,
		string(models.FileUploaded), string(models.FileFailed), jobID,
	)

	var uploaded, failed sql.NullInt64
	if err := row.Scan(&counts.Total, &uploaded, &failed); err != nil {
		return FileCounts{}, fmt.Errorf("file counts %s: %w", jobID, err)
	}
	counts.Uploaded = int(uploaded.Int64)
	counts.Failed = int(failed.Int64)
	return counts, nil
}
