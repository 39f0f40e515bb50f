// Package models holds the upload service's two persisted entities and
// their enumerated states.
package models

import (
	"fmt"
	"time"
)

// JobState is the lifecycle state of an UploadJob.
type JobState string

const (
	JobPending    JobState = "PENDING"
	JobInProgress JobState = "IN_PROGRESS"
	JobCompleted  JobState = "COMPLETED"
	JobFailed     JobState = "FAILED"
)

// String implements fmt.Stringer.
func (s JobState) String() string { return string(s) }

// Valid reports whether s is one of the defined job states.
func (s JobState) Valid() bool {
	switch s {
	case JobPending, JobInProgress, JobCompleted, JobFailed:
		return true
	}
	return false
}

// ParseJobState checks a raw string against the defined job states.
func ParseJobState(raw string) (JobState, error) {
	s := JobState(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid job state %q", raw)
	}
	return s, nil
}

// FileState is the lifecycle state of a File row.
type FileState string

const (
	FilePending    FileState = "PENDING"
	FileInProgress FileState = "IN_PROGRESS"
	FileUploaded   FileState = "UPLOADED"
	FileFailed     FileState = "FAILED"
)

// String implements fmt.Stringer.
func (s FileState) String() string { return string(s) }

// Valid reports whether s is one of the defined file states.
func (s FileState) Valid() bool {
	switch s {
	case FilePending, FileInProgress, FileUploaded, FileFailed:
		return true
	}
	return false
}

// ParseFileState checks a raw string against the defined file states.
func ParseFileState(raw string) (FileState, error) {
	s := FileState(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid file state %q", raw)
	}
	return s, nil
}

// UploadJob mirrors a source directory subset into an object-store prefix.
type UploadJob struct {
	ID                string
	SourceFolder      string
	DestinationBucket string
	Pattern           string
	State             JobState
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// File is the per-file persistent record keyed by (upload job, relative path).
type File struct {
	ID            int64
	UploadJobID   string
	Path          string
	State         FileState
	FailureReason string
	Mtime         float64
	Size          int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ObjectKey returns the object-store key for this file under its job prefix.
func (f *File) ObjectKey() string {
	return f.UploadJobID + "/" + f.Path
}
