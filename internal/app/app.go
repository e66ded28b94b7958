// Package app wires configuration into a running service: database,
// optional redis and kafka, the orchestrator and the admin HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/sujan-004/etl-pipeline-project/config"
	migrations "github.com/sujan-004/etl-pipeline-project/db"
	"github.com/sujan-004/etl-pipeline-project/pkg/catalog"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/events"
	"github.com/sujan-004/etl-pipeline-project/pkg/extractor"
	"github.com/sujan-004/etl-pipeline-project/pkg/health"
	"github.com/sujan-004/etl-pipeline-project/pkg/kafka"
	"github.com/sujan-004/etl-pipeline-project/pkg/loader"
	"github.com/sujan-004/etl-pipeline-project/pkg/pipeline"
	"github.com/sujan-004/etl-pipeline-project/pkg/redis"
	"github.com/sujan-004/etl-pipeline-project/pkg/startup"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
	"github.com/sujan-004/etl-pipeline-project/pkg/watermark"
)

const (
	depTracing  = "tracing"
	depDatabase = "database"
	depRedis    = "redis"
	depKafka    = "kafka"
	depPipeline = "pipeline"
)

type App struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup
	checker *health.Checker

	db           database.DB
	redis        *redis.Client
	producer     *kafka.Producer
	store        watermark.Store
	orchestrator *pipeline.Orchestrator
}

func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
		checker: health.NewChecker(cfg.Version),
	}

	if cfg.TracingEnabled {
		a.startup.AddDependency(a.tracingDependency())
	}
	a.startup.AddDependency(startup.Func{
		Name:    depDatabase,
		StartFn: a.startDatabase,
		StopFn: func(context.Context) error {
			return a.db.Close()
		},
	})

	requires := []string{depDatabase}
	if cfg.UsesRedis() {
		requires = append(requires, depRedis)
		a.startup.AddDependency(startup.Func{
			Name:    depRedis,
			StartFn: a.startRedis,
			StopFn: func(context.Context) error {
				return a.redis.Close()
			},
		})
	}
	if cfg.KafkaEnabled {
		requires = append(requires, depKafka)
		a.startup.AddDependency(startup.Func{
			Name: depKafka,
			StartFn: func(context.Context) error {
				a.producer = kafka.NewProducer(cfg.Kafka(), logger)
				return nil
			},
			StopFn: func(context.Context) error {
				return a.producer.Close()
			},
		})
	}
	a.startup.AddDependency(startup.Func{
		Name:     depPipeline,
		Requires: requires,
		StartFn:  a.startPipeline,
	})

	return a
}

func (a *App) tracingDependency() startup.Func {
	var shutdown func(context.Context) error
	return startup.Func{
		Name: depTracing,
		StartFn: func(ctx context.Context) error {
			tc := a.cfg.Tracing()
			tc.Logger = a.logger
			var err error
			shutdown, err = tracing.Setup(ctx, tc)
			return err
		},
		StopFn: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	}
}

// Start brings every dependency up, retrying with backoff, and marks the
// service ready.
func (a *App) Start(ctx context.Context) error {
	if err := a.startup.Start(ctx); err != nil {
		return err
	}
	a.checker.SetReady(true)
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.checker.SetReady(false)
	return a.startup.Stop(ctx)
}

func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

func (a *App) Checker() *health.Checker {
	return a.checker
}

func (a *App) startDatabase(ctx context.Context) error {
	db, err := OpenDatabase(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}

	if a.cfg.DatabaseMigrateOnStart {
		if err := Migrate(db, a.cfg, a.logger); err != nil {
			_ = db.Close()
			return err
		}
	}

	a.db = db
	a.checker.Add(depDatabase, db, true)
	return nil
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, a.cfg.Redis(), a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	a.checker.Add(depRedis, health.PingFunc(client.Ping), false)
	return nil
}

func (a *App) startPipeline(ctx context.Context) error {
	store, err := NewStore(a.cfg, a.db, a.redis, a.logger)
	if err != nil {
		return err
	}
	a.store = store

	var opts []pipeline.Option
	if a.producer != nil {
		opts = append(opts, pipeline.WithEmitter(events.NewEmitter(a.producer, a.logger)))
		a.logger.WithContext(ctx).WithField("topic", a.producer.Topic()).Info("Publishing run events to kafka")
	}
	if a.cfg.RunLockEnabled {
		opts = append(opts, pipeline.WithLocker(redis.NewLocker(a.redis, "")))
	}

	a.orchestrator = pipeline.New(
		extractor.New(a.db, a.cfg.BatchSize, a.logger),
		loader.New(a.db, a.logger),
		store,
		catalog.NewStaticCatalog(),
		pipeline.Config{
			Name:      a.cfg.PipelineName,
			BatchSize: a.cfg.BatchSize,
			Interval:  a.cfg.SleepInterval,
			LockTTL:   a.cfg.RunLockTTL,
		},
		a.logger,
		opts...,
	)

	a.logger.WithContext(ctx).WithFields(map[string]any{
		"pipeline":  a.cfg.PipelineName,
		"watermark": store.Name(),
		"kafka":     a.producer != nil,
		"run_lock":  a.cfg.RunLockEnabled,
	}).Info("Pipeline ready")
	return nil
}

// OpenDatabase connects to the configured warehouse database.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (database.DB, error) {
	return database.Connect(ctx, cfg.Database(), logger)
}

func Migrate(db database.DB, cfg *config.Config, logger ectologger.Logger) error {
	ms := database.NewMigrationService(logger, cfg.Migration(migrations.Migrations))
	if err := ms.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewStore picks the watermark backend. client may be nil unless the redis
// backend is selected.
func NewStore(cfg *config.Config, db database.DB, client *redis.Client, logger ectologger.Logger) (watermark.Store, error) {
	switch cfg.WatermarkBackend {
	case watermark.BackendDatabase, "":
		return watermark.NewDatabaseStore(db, cfg.PipelineName, logger), nil
	case watermark.BackendRedis:
		if client == nil {
			return nil, errors.New("redis watermark backend selected but redis is not connected")
		}
		return watermark.NewRedisStore(client, cfg.PipelineName, logger), nil
	case watermark.BackendMemory:
		return watermark.NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("unknown watermark backend %q", cfg.WatermarkBackend)
	}
}
