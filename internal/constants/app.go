// Package constants holds fixed limits used across the upload service.
// Values that are operator-tunable live in internal/config instead.
package constants

import "time"

// Storage operation thresholds
const (
	// MultipartThreshold - equal to the default chunk size. The worker does
	// not read this constant: it sends files larger than the configured
	// chunk size (Config.ChunkSize) through the multipart path.
	MultipartThreshold = 5 * 1024 * 1024

	// DefaultChunkSize - default part size for multipart uploads (5 MiB),
	// overridable via Config.ChunkSize.
	DefaultChunkSize = 5 * 1024 * 1024

	// MinPartSize - AWS S3 minimum part size (5 MB, except the last part).
	MinPartSize = 5 * 1024 * 1024

	// MaxS3PartSize - AWS S3 maximum part size (5 GB).
	MaxS3PartSize = 5 * 1024 * 1024 * 1024
)

// Retry configuration
const (
	// MaxRetries - maximum number of attempts (the first one included) for
	// transient errors.
	MaxRetries = 10

	// RetryInitialDelay - initial delay before the first retry.
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries; exponential backoff
	// with jitter caps at this value.
	RetryMaxDelay = 15 * time.Second
)

// Concurrency defaults (overridable via Config)
const (
	// DefaultWorkerConcurrency - default per-job concurrent file uploads.
	DefaultWorkerConcurrency = 5

	// DefaultChunksConcurrency - default process-wide concurrent chunk
	// uploads across all jobs.
	DefaultChunksConcurrency = 10
)

// Monitoring defaults
const (
	// DefaultFileMonitorInterval - default interval between monitor scans.
	DefaultFileMonitorInterval = 60 * time.Second

	// DefaultFileStabilityThreshold - minimum time since a file's mtime
	// before it is considered stable enough to (re-)upload.
	DefaultFileStabilityThreshold = 30 * time.Second
)

// API and context timeouts
const (
	// APIContextTimeout - a per-call timeout value for object-store API calls.
	// The S3 client does not apply it; its calls run under the caller's ctx.
	APIContextTimeout = 30 * time.Second
)
