// Package cli holds the fern command tree.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/sujan-004/etl-pipeline-project/config"
	"github.com/sujan-004/etl-pipeline-project/pkg/logging"
)

type rootOptions struct {
	envFiles []string
}

// load reads configuration and builds the logger. The returned func flushes
// the logger.
func (o *rootOptions) load() (*config.Config, ectologger.Logger, func(), error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, sync, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.PrettyLogs,
		Fields: map[string]any{"app": cfg.AppName, "pipeline": cfg.PipelineName},
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, sync, nil
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fern",
		Short: "Incremental star-schema ETL for e-commerce staging data",
		Long: `fern moves new rows from the staging tables (orders, clicks) into a
star schema: customer, product, location and date dimensions with sales and
cart-abandonment facts. Each run reads only rows ingested after the stored
watermark and advances it when every extraction succeeded.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	cmd.AddCommand(
		newRunCommand(opts),
		newMigrateCommand(opts),
		newSQLCommand(opts),
		newStagingCommand(opts),
		newEnvCommand(),
	)
	return cmd
}

// Execute runs the command tree with a context cancelled on SIGINT or SIGTERM.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables fern reads",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = io.WriteString(cmd.OutOrStdout(), config.Usage())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
