package cli

import (
	"github.com/spf13/cobra"

	"github.com/sujan-004/etl-pipeline-project/internal/app"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var (
		version int
		force   int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the staging, dimension and fact tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, sync, err := opts.load()
			if err != nil {
				return err
			}
			defer sync()

			if cmd.Flags().Changed("version") {
				cfg.DatabaseMigrationVersion = version
			}
			if cmd.Flags().Changed("force") {
				cfg.DatabaseMigrationForce = force
			}

			db, err := app.OpenDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return app.Migrate(db, cfg, logger)
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "migrate to this version instead of the latest")
	cmd.Flags().IntVar(&force, "force", 0, "force the recorded version before migrating")
	return cmd
}
