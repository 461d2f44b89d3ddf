package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"discover-release/internal/flags"
	"discover-release/internal/logger"
)

// The only backend the release pipeline runs against today
const providerName = "s3"

type rootFlags struct {
	force    bool
	debug    bool
	workers  int
	deadline time.Duration
}

func newRootCmd(app *appContainer) *cobra.Command {
	cmdFlags := rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "discover-release",
		Short: "Releases an embargoed dataset version by migrating it to the publish bucket",
		Long: `Migrates every object under the configured key prefix from the embargo
bucket to the publish bucket: server-side copy, verification against the
source metadata, then deletion from the source. The run is idempotent and
can be re-executed after any partial failure until it converges.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmdFlags.debug {
				logger.SetDebug()
			}
			if cmd.Flags().Changed(flags.Workers) {
				if cmdFlags.workers < 1 {
					return fmt.Errorf("workers must be at least 1")
				}
				app.Config.Workers = cmdFlags.workers
			}
			if cmd.Flags().Changed(flags.Deadline) {
				if cmdFlags.deadline <= 0 {
					return fmt.Errorf("deadline must be positive")
				}
				app.Config.Deadline = cmdFlags.deadline
			}

			req := app.Config.Release

			if !cmdFlags.force {
				message := fmt.Sprintf("This will migrate every object under '%s' from bucket '%s' to bucket '%s' and delete the originals.",
					req.KeyPrefix, req.EmbargoBucket, req.PublishBucket)
				confirmed, err := app.Prompter.Confirm(message, req.KeyPrefix)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Release aborted.")
					return nil
				}
			}

			runID := uuid.NewString()

			report, err := app.ReleaseService.Run(cmd.Context(), providerName, runID)
			if report != nil {
				fmt.Println(app.ReportFormatter.FormatReport(req, report))
			}
			if err != nil {
				return err
			}
			if !report.Succeeded() {
				return fmt.Errorf("release incomplete: %s", report.FailureReason())
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Skip the interactive confirmation prompt")
	rootCmd.Flags().BoolVarP(&cmdFlags.debug, flags.Debug, flags.DebugShort, false, "Enable verbose logging")
	rootCmd.Flags().IntVar(&cmdFlags.workers, flags.Workers, 0, "Override the configured number of migration workers")
	rootCmd.Flags().DurationVar(&cmdFlags.deadline, flags.Deadline, 0, "Override the configured overall run deadline")

	return rootCmd
}

func Execute(app *appContainer) {
	rootCmd := newRootCmd(app)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
