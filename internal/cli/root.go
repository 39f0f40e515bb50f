package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Global context for signal handling, grounded on the teacher's CLI root
// command: a single process-wide cancellable context set up in Execute and
// torn down on SIGINT/SIGTERM.
var (
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd builds the root command and attaches every subcommand group.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uploadsvc",
		Short: "Upload orchestration service",
		Long:  `uploadsvc scans source folders, uploads new or changed files to an object store, and tracks per-job progress.`,
	}

	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newJobsCmd(app))

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI, cancelling GetContext's context on SIGINT/SIGTERM.
func Execute(app *App) error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nreceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd(app)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// GetContext returns the signal-aware root context. Falls back to a plain
// background context if called before Execute.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
