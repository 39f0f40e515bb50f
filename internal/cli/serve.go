package cli

import (
	"github.com/spf13/cobra"
)

// newServeCmd creates the 'serve' command: resume non-terminal jobs, then
// run the file monitor loop until cancelled.
func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run startup recovery and the file monitor loop",
		Long: `serve re-enqueues every job left PENDING or IN_PROGRESS from a prior
run, then starts the periodic monitor that re-scans COMPLETED jobs for
new or changed files. It blocks until interrupted (SIGINT/SIGTERM).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			app.Log.Info().Msg("serve: resuming non-terminal jobs")
			if err := app.resumePending(ctx); err != nil {
				return err
			}

			app.Log.Info().Msg("serve: starting monitor loop")
			app.Monitor.Run(ctx)

			app.Log.Info().Msg("serve: shutting down")
			return nil
		},
	}
}
