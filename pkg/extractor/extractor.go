// Package extractor reads watermark-bounded windows of the staging tables.
package extractor

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/internal/repositories/staging"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const DefaultBatchSize = 1000

// Extractor owns one pooled connection, taken on the first extraction and
// returned by Close. It never writes.
type Extractor struct {
	conn      *database.ScopedConn
	flavor    sqlbuilder.Flavor
	batchSize int
	logger    ectologger.Logger
}

func New(db database.DB, batchSize int, logger ectologger.Logger) *Extractor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Extractor{
		conn:      database.NewScopedConn(db, "extractor", logger),
		flavor:    db.Flavor(),
		batchSize: batchSize,
		logger:    logger,
	}
}

// ExtractOrders returns up to limit orders ingested after watermark, oldest
// first. A nil watermark reads from the start of the table. A limit of zero
// uses the configured batch size.
func (e *Extractor) ExtractOrders(ctx context.Context, watermark *time.Time, limit int) ([]models.StagingOrder, error) {
	return extract(ctx, e, models.EntityOrders, watermark, limit, (*staging.Repository).ListOrders)
}

func (e *Extractor) ExtractClicks(ctx context.Context, watermark *time.Time, limit int) ([]models.StagingClick, error) {
	return extract(ctx, e, models.EntityClicks, watermark, limit, (*staging.Repository).ListClicks)
}

func (e *Extractor) ExtractCustomerEvents(ctx context.Context, watermark *time.Time, limit int) ([]models.StagingCustomerEvent, error) {
	return extract(ctx, e, models.EntityCustomerEvents, watermark, limit, (*staging.Repository).ListCustomerEvents)
}

// Close returns the connection to the pool. Safe to call more than once.
func (e *Extractor) Close() error {
	return e.conn.Close()
}

type listFunc[T any] func(r *staging.Repository, ctx context.Context, after *time.Time, limit int) ([]T, error)

// extract never returns a partial batch: on a query failure the slice is
// empty and the error is an extraction error, on a connection failure it is
// fatal.
func extract[T any](ctx context.Context, e *Extractor, entity models.EntityType, watermark *time.Time, limit int, list listFunc[T]) ([]T, error) {
	ctx, span := tracing.StartSpan(ctx, "extractor.Extractor.Extract")
	defer span.End()

	if limit <= 0 {
		limit = e.batchSize
	}

	conn, err := e.conn.Acquire(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return []T{}, etlerrors.Wrap(etlerrors.KindFatal, err, "extractor connection unavailable").AddEntity(string(entity)).AddOp("extract")
	}

	repo := staging.NewRepository(conn, e.flavor, e.logger)
	rows, err := list(repo, ctx, watermark, limit)
	if err != nil {
		tracing.RecordError(span, err)
		e.logger.WithContext(ctx).WithError(err).WithField("entity", entity).Error("Extraction failed, batch dropped")
		return []T{}, etlerrors.Wrap(etlerrors.KindExtraction, err, "extraction failed").AddEntity(string(entity)).AddOp("extract")
	}

	fields := map[string]any{"entity": entity, "rows": len(rows), "limit": limit}
	if watermark != nil {
		fields["watermark"] = watermark.UTC().Format(time.RFC3339Nano)
	}
	e.logger.WithContext(ctx).WithFields(fields).Debug("Extracted staging rows")

	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
