package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sujan-004/etl-pipeline-project/internal/app"
	"github.com/sujan-004/etl-pipeline-project/pkg/extractor"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/redis"
)

type peekOutput struct {
	Entity    models.EntityType `json:"entity"`
	Watermark *time.Time        `json:"watermark"`
	Count     int               `json:"count"`
	Rows      any               `json:"rows"`
}

func newStagingCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect the staging tables",
	}
	cmd.AddCommand(newStagingPeekCommand(opts))
	return cmd
}

func newStagingPeekCommand(opts *rootOptions) *cobra.Command {
	var (
		limit     int
		fromStart bool
	)

	cmd := &cobra.Command{
		Use:       "peek <orders|clicks|customer_events>",
		Short:     "Print the rows the next run would extract, as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.EntityOrders), string(models.EntityClicks), string(models.EntityCustomerEvents)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := models.EntityType(args[0])
			switch entity {
			case models.EntityOrders, models.EntityClicks, models.EntityCustomerEvents:
			default:
				return fmt.Errorf("unknown staging entity %q", args[0])
			}

			cfg, logger, sync, err := opts.load()
			if err != nil {
				return err
			}
			defer sync()

			ctx := cmd.Context()
			db, err := app.OpenDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			out := peekOutput{Entity: entity}
			if !fromStart {
				var client *redis.Client
				if cfg.WatermarkBackend == "redis" {
					client, err = redis.NewClient(ctx, cfg.Redis(), logger)
					if err != nil {
						return err
					}
					defer client.Close()
				}
				store, err := app.NewStore(cfg, db, client, logger)
				if err != nil {
					return err
				}
				if out.Watermark, err = store.Load(ctx); err != nil {
					return err
				}
			}

			ex := extractor.New(db, cfg.BatchSize, logger)
			defer ex.Close()

			switch entity {
			case models.EntityOrders:
				rows, err := ex.ExtractOrders(ctx, out.Watermark, limit)
				if err != nil {
					return err
				}
				out.Rows, out.Count = rows, len(rows)
			case models.EntityClicks:
				rows, err := ex.ExtractClicks(ctx, out.Watermark, limit)
				if err != nil {
					return err
				}
				out.Rows, out.Count = rows, len(rows)
			case models.EntityCustomerEvents:
				rows, err := ex.ExtractCustomerEvents(ctx, out.Watermark, limit)
				if err != nil {
					return err
				}
				out.Rows, out.Count = rows, len(rows)
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum rows to print")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "ignore the stored watermark")
	return cmd
}
