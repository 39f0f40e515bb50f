package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/supox/genomics-upload-service/internal/progress"
)

// newJobsCmd creates the 'jobs' command group.
func newJobsCmd(app *App) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Job operations (create, retry, status)",
	}

	jobsCmd.AddCommand(newJobsCreateCmd(app))
	jobsCmd.AddCommand(newJobsRetryCmd(app))
	jobsCmd.AddCommand(newJobsStatusCmd(app))

	return jobsCmd
}

// newJobsCreateCmd creates the 'jobs create' command.
func newJobsCreateCmd(app *App) *cobra.Command {
	var source, bucket, pattern string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an upload job and run it to completion or failure",
		Long: `create registers a new UploadJob and processes it synchronously,
scanning the source folder, uploading new or changed files, and printing
the resulting progress.

Example:
  uploadsvc jobs create --source /data/run42 --bucket my-bucket --pattern "*.fastq"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" || bucket == "" {
				return fmt.Errorf("--source and --bucket are required")
			}
			ctx := GetContext()

			id := uuid.NewString()
			job, err := app.Store.CreateJob(ctx, id, source, bucket, pattern)
			if err != nil {
				return fmt.Errorf("create job: %w", err)
			}
			app.Log.Infof("jobs create: created job %s for %s -> s3://%s", job.ID, job.SourceFolder, job.DestinationBucket)

			app.Orchestrator.ProcessUploadJob(ctx, job.ID, false)
			return printJobStatus(cmd, app, job.ID)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source folder to scan (required)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "*", "Glob pattern restricting which files are uploaded")

	return cmd
}

// newJobsRetryCmd creates the 'jobs retry' command.
func newJobsRetryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Reset failed/incomplete files and re-run a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			id := args[0]

			app.Orchestrator.RetryJob(ctx, id)
			return printJobStatus(cmd, app, id)
		},
	}
}

// newJobsStatusCmd creates the 'jobs status' command.
func newJobsStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Print a job's current derived progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJobStatus(cmd, app, args[0])
		},
	}
}

func printJobStatus(cmd *cobra.Command, app *App, jobID string) error {
	ctx := GetContext()

	job, err := app.Store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job status: %w", err)
	}
	counts, err := app.Store.FileCounts(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job status: %w", err)
	}
	proj := progress.Compute(counts, job.State)

	fmt.Fprintf(cmd.OutOrStdout(), "job %s: state=%s progress=%.0f%% total=%d uploaded=%d failed=%d\n",
		job.ID, proj.State, proj.Fraction*100, proj.Total, proj.Uploaded, proj.Failed)
	return nil
}
