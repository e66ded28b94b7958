package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const Table = "etl_watermarks"

type Repository struct {
	db     database.Querier
	flavor sqlbuilder.Flavor
	logger ectologger.Logger
}

func NewRepository(db database.Querier, flavor sqlbuilder.Flavor, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		flavor: flavor,
		logger: logger,
	}
}

// Get returns nil when the pipeline has never completed a run.
func (r *Repository) Get(ctx context.Context, pipeline string) (*time.Time, error) {
	ctx, span := tracing.StartSpan(ctx, "watermark.Repository.Get")
	defer span.End()

	sb := r.flavor.NewSelectBuilder()
	sb.Select("watermark").From(Table).Where(sb.Equal("pipeline_name", pipeline))

	query, args := sb.Build()
	var wm time.Time
	if err := r.db.GetContext(ctx, &wm, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("pipeline", pipeline).Error("Failed to read watermark")
		return nil, fmt.Errorf("failed to read watermark for %s: %w", pipeline, err)
	}
	wm = wm.UTC()
	return &wm, nil
}

// Set stores wm unless a later watermark is already recorded.
func (r *Repository) Set(ctx context.Context, pipeline string, wm time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "watermark.Repository.Set")
	defer span.End()

	ib := database.NewInsertBuilder(r.flavor)
	ib.InsertInto(Table)
	ib.Cols("pipeline_name", "watermark")
	ib.Values(pipeline, wm.UTC())
	ib.SQL(fmt.Sprintf("ON CONFLICT (pipeline_name) DO UPDATE SET watermark = %s, updated_at = CURRENT_TIMESTAMP WHERE %s.watermark < %s",
		database.Excluded("watermark"), Table, database.Excluded("watermark")))

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("pipeline", pipeline).Error("Failed to store watermark")
		return fmt.Errorf("failed to store watermark for %s: %w", pipeline, err)
	}
	return nil
}
