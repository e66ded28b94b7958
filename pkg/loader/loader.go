// Package loader resolves dimension surrogate keys and appends fact rows.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/internal/repositories/datedim"
	"github.com/sujan-004/etl-pipeline-project/internal/repositories/dimension"
	"github.com/sujan-004/etl-pipeline-project/internal/repositories/fact"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
	"github.com/sujan-004/etl-pipeline-project/pkg/transform"
)

// Loader owns one pooled connection, taken on first use and returned by
// Close. Date keys found in dim_date are cached until the loader is
// discarded; misses are always re-checked.
type Loader struct {
	conn     *database.ScopedConn
	flavor   sqlbuilder.Flavor
	logger   ectologger.Logger
	validate *validator.Validate

	mu       sync.Mutex
	dateKeys map[int]struct{}
}

// New returns a loader over db. No connection is taken until the first call.
func New(db database.DB, logger ectologger.Logger) *Loader {
	return &Loader{
		conn:     database.NewScopedConn(db, "loader", logger),
		flavor:   db.Flavor(),
		logger:   logger,
		validate: validator.New(),
		dateKeys: map[int]struct{}{},
	}
}

type repositories struct {
	dimensions *dimension.Repository
	dates      *datedim.Repository
	facts      *fact.Repository
}

func (l *Loader) repositories(ctx context.Context, op string) (*repositories, error) {
	conn, err := l.conn.Acquire(ctx)
	if err != nil {
		return nil, etlerrors.Wrap(etlerrors.KindFatal, err, "loader connection unavailable").AddOp(op)
	}
	return &repositories{
		dimensions: dimension.NewRepository(conn, l.flavor, l.logger),
		dates:      datedim.NewRepository(conn, l.flavor, l.logger),
		facts:      fact.NewRepository(conn, l.flavor, l.logger),
	}, nil
}

// UpsertCustomer resolves the dim_customer surrogate key for attrs.
func (l *Loader) UpsertCustomer(ctx context.Context, attrs models.CustomerAttributes) (int64, error) {
	return l.UpsertDimension(ctx, attrs)
}

// UpsertProduct resolves the dim_product surrogate key for attrs.
func (l *Loader) UpsertProduct(ctx context.Context, attrs models.ProductAttributes) (int64, error) {
	return l.UpsertDimension(ctx, attrs)
}

// UpsertLocation resolves the dim_location surrogate key for attrs.
func (l *Loader) UpsertLocation(ctx context.Context, attrs models.LocationAttributes) (int64, error) {
	return l.UpsertDimension(ctx, attrs)
}

// UpsertDimension inserts or refreshes the row for attrs' natural key and
// returns its surrogate key. Failing to acquire the connection is fatal;
// every other failure is a key resolution error for this record.
func (l *Loader) UpsertDimension(ctx context.Context, attrs models.DimensionAttributes) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "loader.Loader.UpsertDimension")
	defer span.End()

	kind := string(attrs.DimensionKind())
	keyErr := func(err error, msg string) error {
		tracing.RecordError(span, err)
		return etlerrors.Wrap(etlerrors.KindKeyResolution, err, msg).AddEntity(kind).AddRecord(attrs.NaturalKey()).AddOp("upsert_dimension")
	}

	if err := l.validate.Struct(attrs); err != nil {
		return 0, keyErr(err, "incomplete natural key")
	}

	repos, err := l.repositories(ctx, "upsert_dimension")
	if err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}

	var key int64
	switch a := attrs.(type) {
	case models.CustomerAttributes:
		key, err = repos.dimensions.UpsertCustomer(ctx, a)
	case models.ProductAttributes:
		key, err = repos.dimensions.UpsertProduct(ctx, a)
	case models.LocationAttributes:
		key, err = repos.dimensions.UpsertLocation(ctx, a)
	default:
		return 0, keyErr(fmt.Errorf("unsupported dimension %T", attrs), "")
	}
	if err != nil {
		return 0, keyErr(err, "")
	}
	if key == 0 {
		return 0, keyErr(dimension.ErrKeyNotFound, "")
	}
	return key, nil
}

// DateKey returns the YYYYMMDD key for t after checking that dim_date has the
// day. Dates outside the populated range are key resolution errors.
func (l *Loader) DateKey(ctx context.Context, t time.Time) (int, error) {
	key := transform.DateKey(t.UTC())

	l.mu.Lock()
	_, cached := l.dateKeys[key]
	l.mu.Unlock()
	if cached {
		return key, nil
	}

	repos, err := l.repositories(ctx, "date_key")
	if err != nil {
		return 0, err
	}

	ok, err := repos.dates.Exists(ctx, key)
	if err != nil {
		return 0, etlerrors.Wrap(etlerrors.KindKeyResolution, err, "date lookup failed").AddEntity("date").AddRecord(fmt.Sprint(key)).AddOp("date_key")
	}
	if !ok {
		msg := fmt.Sprintf("date %d is outside dim_date", key)
		if c, err := repos.dates.Coverage(ctx); err == nil && c.Days > 0 {
			msg = fmt.Sprintf("%s (populated %d..%d)", msg, c.First, c.Last)
		}
		return 0, etlerrors.New(etlerrors.KindKeyResolution, msg).AddEntity("date").AddRecord(fmt.Sprint(key)).AddOp("date_key")
	}

	l.mu.Lock()
	l.dateKeys[key] = struct{}{}
	l.mu.Unlock()
	return key, nil
}

// InsertFactSales appends a sales fact. It returns false when the order
// already has one.
func (l *Loader) InsertFactSales(ctx context.Context, row models.SalesFact) (bool, error) {
	return l.InsertFact(ctx, row)
}

// InsertFactCartAbandonment appends an abandonment fact. It returns false
// when the click already has one.
func (l *Loader) InsertFactCartAbandonment(ctx context.Context, row models.CartAbandonmentFact) (bool, error) {
	return l.InsertFact(ctx, row)
}

// InsertFact appends row to its fact table. A storage failure is a load
// error for this record unless the connection could not be acquired.
func (l *Loader) InsertFact(ctx context.Context, row models.FactRow) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "loader.Loader.InsertFact")
	defer span.End()

	repos, err := l.repositories(ctx, "insert_fact")
	if err != nil {
		tracing.RecordError(span, err)
		return false, err
	}

	var written bool
	switch r := row.(type) {
	case models.SalesFact:
		written, err = repos.facts.InsertSales(ctx, r)
	case models.CartAbandonmentFact:
		written, err = repos.facts.InsertCartAbandonment(ctx, r)
	default:
		err = fmt.Errorf("unsupported fact %T", row)
	}
	if err != nil {
		tracing.RecordError(span, err)
		return false, etlerrors.Wrap(etlerrors.KindLoad, err, "fact insert failed").AddEntity(string(row.FactKind())).AddRecord(row.BusinessKey()).AddOp("insert_fact")
	}

	if !written {
		l.logger.WithContext(ctx).WithFields(map[string]any{"fact": row.FactKind(), "business_key": row.BusinessKey()}).Debug("Fact already loaded")
	}
	return written, nil
}

// Close returns the connection to the pool. Safe to call more than once.
func (l *Loader) Close() error {
	return l.conn.Close()
}
