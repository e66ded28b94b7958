package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sujan-004/etl-pipeline-project/internal/app"
	"github.com/sujan-004/etl-pipeline-project/pkg/sqlscript"
)

func newSQLCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Run SQL scripts against the warehouse database",
	}
	cmd.AddCommand(newSQLExecCommand(opts))
	return cmd
}

func newSQLExecCommand(opts *rootOptions) *cobra.Command {
	var continueOnError bool

	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Split a script into statements and execute them in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			cfg, logger, sync, err := opts.load()
			if err != nil {
				return err
			}
			defer sync()

			db, err := app.OpenDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			result, execErr := sqlscript.Exec(cmd.Context(), db, string(script), sqlscript.ExecOptions{ContinueOnError: continueOnError}, logger)
			if result != nil {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			}
			return execErr
		},
	}
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going after a failed statement")
	return cmd
}
