package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sujan-004/etl-pipeline-project/internal/app"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline continuously, or a single cycle with --once",
		Long: `Run starts the pipeline loop and the admin HTTP server. On SIGINT or
SIGTERM the run in flight finishes before the process exits. With --once a
single cycle runs, its report is printed as JSON, and the exit code is
non-zero unless the run completed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, sync, err := opts.load()
			if err != nil {
				return err
			}
			defer sync()

			ctx := cmd.Context()
			a := app.New(cfg, logger)
			if err := a.Start(ctx); err != nil {
				logger.WithError(err).Error("Failed to start fern")
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
				defer cancel()
				if err := a.Stop(stopCtx); err != nil {
					logger.WithError(err).Warn("Failed to stop cleanly")
				}
			}()

			if !once {
				return a.Serve(ctx)
			}

			report, err := a.Orchestrator().RunOnce(ctx)
			if report != nil {
				if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			if report.Status != models.RunCompleted {
				return fmt.Errorf("run %s finished with status %s", report.RunID, report.Status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}
