// Package progress is the pure, read-only projection of a job's live state
// and completion fraction from its File-row counts. It never persists its
// output; the orchestrator is the only writer of job state.
package progress

import (
	"github.com/supox/genomics-upload-service/internal/models"
	"github.com/supox/genomics-upload-service/internal/store"
)

// Progress is the derived view of a job at a point in time.
type Progress struct {
	State    models.JobState
	Fraction float64
	Total    int
	Uploaded int
	Failed   int
}

// Compute derives live job state and progress fraction from file counts.
// persisted is the job's currently persisted state, used as a tiebreaker
// when the file counts alone don't indicate a terminal state.
func Compute(counts store.FileCounts, persisted models.JobState) Progress {
	p := Progress{
		Total:    counts.Total,
		Uploaded: counts.Uploaded,
		Failed:   counts.Failed,
	}

	if counts.Total == 0 {
		p.Fraction = 1.0
	} else {
		p.Fraction = float64(counts.Uploaded) / float64(counts.Total)
	}

	switch {
	case counts.Total == 0:
		p.State = models.JobCompleted
	case counts.Uploaded == counts.Total:
		p.State = models.JobCompleted
	case counts.Failed > 0 && counts.Uploaded+counts.Failed == counts.Total:
		p.State = models.JobFailed
	case persisted == models.JobPending || persisted == models.JobInProgress:
		p.State = persisted
	default:
		p.State = models.JobInProgress
	}

	return p
}
