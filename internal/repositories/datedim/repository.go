package datedim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const Table = "dim_date"

// Repository reads the pre-populated date dimension. It never writes.
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

func (r *Repository) Exists(ctx context.Context, dateKey int) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "datedim.Repository.Exists")
	defer span.End()

	sb := r.flavor.NewSelectBuilder()
	sb.Select("date_key").From(Table).Where(sb.Equal("date_key", dateKey))

	query, args := sb.Build()
	var found int
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("date_key", dateKey).Error("Failed to look up date key")
		return false, fmt.Errorf("failed to look up date key %d: %w", dateKey, err)
	}
	return true, nil
}

// Coverage is the populated dim_date key range.
type Coverage struct {
	First int `db:"first_key" json:"first_key"`
	Last  int `db:"last_key" json:"last_key"`
	Days  int `db:"days" json:"days"`
}

// Coverage reports the populated key range, all zero when the table is empty.
func (r *Repository) Coverage(ctx context.Context) (Coverage, error) {
	sb := r.flavor.NewSelectBuilder()
	sb.Select("COALESCE(MIN(date_key), 0) AS first_key", "COALESCE(MAX(date_key), 0) AS last_key", "COUNT(*) AS days")
	sb.From(Table)

	query, args := sb.Build()
	var c Coverage
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		return Coverage{}, fmt.Errorf("failed to read date coverage: %w", err)
	}
	return c, nil
}
