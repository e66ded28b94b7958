// Package pipeline sequences extraction, transformation and loading into
// runs, and repeats them on an interval.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sujan-004/etl-pipeline-project/pkg/catalog"
	appctx "github.com/sujan-004/etl-pipeline-project/pkg/context"
	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/metrics"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
	"github.com/sujan-004/etl-pipeline-project/pkg/watermark"
)

const (
	DefaultName      = "ecommerce"
	DefaultBatchSize = 1000
	DefaultInterval  = 5 * time.Second
	DefaultLockTTL   = 10 * time.Minute
)

var (
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	ErrRunLocked     = errors.New("another instance holds the pipeline lock")
)

type Extractor interface {
	ExtractOrders(ctx context.Context, watermark *time.Time, limit int) ([]models.StagingOrder, error)
	ExtractClicks(ctx context.Context, watermark *time.Time, limit int) ([]models.StagingClick, error)
	Close() error
}

type Loader interface {
	UpsertCustomer(ctx context.Context, attrs models.CustomerAttributes) (int64, error)
	UpsertProduct(ctx context.Context, attrs models.ProductAttributes) (int64, error)
	UpsertLocation(ctx context.Context, attrs models.LocationAttributes) (int64, error)
	DateKey(ctx context.Context, t time.Time) (int, error)
	InsertFactSales(ctx context.Context, row models.SalesFact) (bool, error)
	InsertFactCartAbandonment(ctx context.Context, row models.CartAbandonmentFact) (bool, error)
	Close() error
}

type Emitter interface {
	EmitRun(ctx context.Context, report *models.RunReport) error
}

// Locker serialises runs across instances. TryLock fails when the lock is
// held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type Config struct {
	Name      string
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration
}

type Option func(*Orchestrator)

// WithEmitter publishes every run report once the run has finished.
func WithEmitter(e Emitter) Option {
	return func(o *Orchestrator) { o.emitter = e }
}

// WithLocker takes a lock keyed by the pipeline name around each run.
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// WithClock replaces time.Now for run start and finish times.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

type Orchestrator struct {
	extractor Extractor
	loader    Loader
	store     watermark.Store
	catalog   catalog.Catalog
	emitter   Emitter
	locker    Locker
	config    Config
	logger    ectologger.Logger
	now       func() time.Time

	state   RunState
	trigger chan struct{}
}

// New builds an orchestrator. Zero config values fall back to the defaults.
func New(extractor Extractor, loader Loader, store watermark.Store, cat catalog.Catalog, config Config, logger ectologger.Logger, opts ...Option) *Orchestrator {
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}

	o := &Orchestrator{
		extractor: extractor,
		loader:    loader,
		store:     store,
		catalog:   cat,
		config:    config,
		logger:    logger,
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name is the pipeline name the watermark and run lock are keyed by.
func (o *Orchestrator) Name() string {
	return o.config.Name
}

// WatermarkBackend names the store the watermark is kept in.
func (o *Orchestrator) WatermarkBackend() string {
	return o.store.Name()
}

// State returns a copy of the run state, safe to read while a run is in flight.
func (o *Orchestrator) State() Snapshot {
	return o.state.Snapshot()
}

// Watermark loads the current watermark from the store.
func (o *Orchestrator) Watermark(ctx context.Context) (*time.Time, error) {
	return o.store.Load(ctx)
}

// Trigger asks the run loop to start the next run now. It returns false when
// a trigger is already pending.
func (o *Orchestrator) Trigger() bool {
	select {
	case o.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run repeats RunOnce until ctx is cancelled. A run in flight when ctx is
// cancelled is allowed to finish.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.WithContext(ctx).WithFields(map[string]any{
		"pipeline":   o.config.Name,
		"interval":   o.config.Interval.String(),
		"batch_size": o.config.BatchSize,
	}).Info("Starting continuous pipeline")

	for {
		if ctx.Err() != nil {
			o.logger.WithContext(ctx).Info("Pipeline stopped")
			return nil
		}

		if _, err := o.RunOnce(context.WithoutCancel(ctx)); err != nil {
			o.logger.WithContext(ctx).WithError(err).Warn("Pipeline run did not complete, retrying after interval")
		}

		timer := time.NewTimer(o.config.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.WithContext(ctx).Info("Pipeline stopped")
			return nil
		case <-o.trigger:
			timer.Stop()
			o.logger.WithContext(ctx).Info("Manual run triggered")
		case <-timer.C:
		}
	}
}

// RunOnce processes one window of orders and then clicks. The watermark
// advances to the run's start time only when every extraction succeeded and
// nothing fatal happened. The returned error is non-nil only for runs that
// could not be carried out; per-record problems live in the report.
func (o *Orchestrator) RunOnce(ctx context.Context) (*models.RunReport, error) {
	if !o.state.begin() {
		return nil, ErrRunInProgress
	}

	start := o.now().UTC()
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		Pipeline:  o.config.Name,
		StartedAt: start,
		Entities: []models.EntityReport{
			{Entity: models.EntityOrders},
			{Entity: models.EntityClicks},
		},
	}

	ctx = appctx.SetPipeline(appctx.SetRunID(ctx, report.RunID), o.config.Name)
	ctx, span := tracing.StartSpan(ctx, "pipeline.Orchestrator.RunOnce")
	defer span.End()
	tracing.SetAttributes(span, attribute.String("run_id", report.RunID), attribute.String("pipeline", o.config.Name))

	logger := o.logger.WithContext(ctx).WithFields(appctx.LogFields(ctx))

	if o.locker != nil {
		release, err := o.locker.TryLock(ctx, o.config.Name, o.config.LockTTL)
		if err != nil {
			o.state.abort()
			logger.WithError(err).Info("Skipping run, pipeline lock unavailable")
			return nil, fmt.Errorf("%w: %v", ErrRunLocked, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.WithError(err).Warn("Failed to release pipeline lock")
			}
		}()
	}

	defer func() {
		if err := o.extractor.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release extractor connection")
		}
		if err := o.loader.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release loader connection")
		}
	}()

	runErr := o.run(ctx, report)
	if runErr != nil {
		tracing.RecordError(span, runErr)
	}

	report.FinishedAt = o.now().UTC()
	o.observe(report)
	o.state.finish(report)

	fields := map[string]any{"status": report.Status, "duration": report.Duration().String()}
	for _, e := range report.Entities {
		fields[string(e.Entity)] = fmt.Sprintf("extracted=%d loaded=%d duplicates=%d ignored=%d rejected=%d skipped=%d failed=%d",
			e.Extracted, e.Loaded, e.Duplicates, e.Ignored, e.Rejected, e.Skipped, e.Failed)
	}
	switch report.Status {
	case models.RunCompleted:
		logger.WithFields(fields).Info("Pipeline run completed")
	case models.RunHeld:
		logger.WithFields(fields).Warn("Pipeline run held the watermark")
	default:
		logger.WithError(runErr).WithFields(fields).Error("Pipeline run failed")
	}

	if o.emitter != nil {
		if err := o.emitter.EmitRun(ctx, report); err != nil {
			logger.WithError(err).Warn("Failed to emit run events")
		}
	}

	return report, runErr
}

func (o *Orchestrator) run(ctx context.Context, report *models.RunReport) error {
	before, err := o.store.Load(ctx)
	if err != nil {
		return o.fail(report, etlerrors.Wrap(etlerrors.KindFatal, err, "failed to load watermark").AddOp("load_watermark"))
	}
	report.WatermarkBefore = before

	held := false
	steps := []struct {
		entity  models.EntityType
		process func(context.Context, *time.Time, *models.EntityReport) error
	}{
		{models.EntityOrders, o.processOrders},
		{models.EntityClicks, o.processClicks},
	}
	for _, step := range steps {
		entity := report.Entity(step.entity)
		if err := step.process(ctx, before, entity); err != nil {
			if !etlerrors.IsFatal(err) {
				entity.ExtractionError = err.Error()
				held = true
				continue
			}
			return o.fail(report, err)
		}
	}

	if held {
		report.Status = models.RunHeld
		report.WatermarkAfter = before
		return nil
	}

	if err := o.store.Save(ctx, report.StartedAt); err != nil {
		report.Status = models.RunHeld
		report.Error = err.Error()
		report.WatermarkAfter = before
		return nil
	}

	after, err := o.store.Load(ctx)
	if err != nil {
		after = &report.StartedAt
	}
	report.WatermarkAfter = after
	report.Status = models.RunCompleted
	return nil
}

func (o *Orchestrator) fail(report *models.RunReport, err error) error {
	report.Status = models.RunFailed
	report.Error = err.Error()
	report.WatermarkAfter = report.WatermarkBefore
	return err
}

func (o *Orchestrator) observe(report *models.RunReport) {
	metrics.RecordRun(report.Pipeline, string(report.Status), report.Duration())
	if report.WatermarkAfter != nil {
		metrics.SetWatermark(report.Pipeline, *report.WatermarkAfter)
	}
	for _, e := range report.Entities {
		entity := string(e.Entity)
		metrics.RecordRecords(report.Pipeline, entity, string(models.RecordLoaded), e.Loaded)
		metrics.RecordRecords(report.Pipeline, entity, string(models.RecordDuplicate), e.Duplicates)
		metrics.RecordRecords(report.Pipeline, entity, string(models.RecordIgnored), e.Ignored)
		metrics.RecordRecords(report.Pipeline, entity, string(models.RecordRejected), e.Rejected)
		metrics.RecordRecords(report.Pipeline, entity, string(models.RecordSkipped), e.Skipped)
		metrics.RecordRecords(report.Pipeline, entity, string(models.RecordFailed), e.Failed)
	}
}
