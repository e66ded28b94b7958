package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/kafka"
	"github.com/sujan-004/etl-pipeline-project/pkg/redis"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing/exporters"
)

type Config struct {
	AppName                       string        `env:"APP_NAME" env-default:"fern"`
	Version                       string        `env:"APP_VERSION" env-default:"dev"`
	Port                          int           `env:"PORT" env-default:"3010" validate:"min=1,max=65535"`
	LogLevel                      string        `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs                    bool          `env:"PRETTY_LOGS" env-default:"false"`
	HttpEnabled                   bool          `env:"HTTP_ENABLED" env-default:"true"`
	HttpServerWriteTimeoutSeconds int           `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int           `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int           `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	ShutdownTimeout               time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	StartupMaxAttempts            int           `env:"STARTUP_MAX_ATTEMPTS" env-default:"5" validate:"min=1"`

	// Warehouse database (staging and star schema live together)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres" validate:"oneof=postgres sqlite3"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:"postgres"`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"ecommerce_etl"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabasePath                  string        `env:"DB_PATH" env-default:""`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"10" validate:"min=2"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"4"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:""`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0" validate:"min=0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`
	DatabaseMigrateOnStart        bool          `env:"DB_MIGRATE_ON_START" env-default:"true"`

	// ETL
	PipelineName     string        `env:"PIPELINE_NAME" env-default:"ecommerce" validate:"required"`
	BatchSize        int           `env:"ETL_BATCH_SIZE" env-default:"1000" validate:"min=1"`
	SleepInterval    time.Duration `env:"ETL_SLEEP_INTERVAL" env-default:"5s" validate:"min=1ms"`
	WatermarkBackend string        `env:"WATERMARK_BACKEND" env-default:"database" validate:"oneof=database redis memory"`
	RunLockEnabled   bool          `env:"RUN_LOCK_ENABLED" env-default:"false"`
	RunLockTTL       time.Duration `env:"RUN_LOCK_TTL" env-default:"10m"`

	// Redis (watermark store and run lock)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Kafka producer (run events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopic        string   `env:"KAFKA_TOPIC" env-default:"etl-run-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy" validate:"oneof=snappy gzip lz4 zstd none"`

	// Tracing
	TracingEnabled      bool          `env:"TRACING_ENABLED" env-default:"false"`
	TracingExporter     string        `env:"TRACING_EXPORTER" env-default:"otlp" validate:"oneof=otlp console"`
	OTLPEndpoint        string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol        string        `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
	OTLPInsecure        bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	OTLPHeaders         string        `env:"OTEL_EXPORTER_OTLP_HEADERS" env-default:""`
	OTLPTimeout         time.Duration `env:"OTEL_EXPORTER_OTLP_TIMEOUT" env-default:"10s"`
}

// Load reads the optional .env files, then the process environment, and
// validates the result. Values already in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.WatermarkBackend == "redis" && c.RedisHost == "" {
		return errors.New("invalid config: WATERMARK_BACKEND=redis requires REDIS_HOST")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("invalid config: KAFKA_ENABLED requires KAFKA_BROKERS")
	}
	return nil
}

// Usage describes every supported variable, for the CLI help text.
func Usage() string {
	var cfg Config
	usage, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return usage
}

func (c *Config) UsesRedis() bool {
	return c.WatermarkBackend == "redis" || c.RunLockEnabled
}

func (c *Config) Database() database.ConnectConfig {
	return database.ConnectConfig{
		Driver:          c.DatabaseDriver,
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		UserName:        c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Name:            c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		Path:            c.DatabasePath,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}

func (c *Config) Migration(embedded fs.FS) *database.MigrationConfig {
	return &database.MigrationConfig{
		Embedded:            embedded,
		MigrationFolderPath: c.DatabaseMigrationFolderPath,
		Version:             uint(c.DatabaseMigrationVersion),
		Force:               c.DatabaseMigrationForce,
		AutoRollback:        c.DatabaseMigrationAutoRollback,
	}
}

func (c *Config) Redis() redis.Config {
	return redis.Config{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Kafka() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      c.KafkaBrokers,
		Topic:        c.KafkaTopic,
		BatchSize:    c.KafkaBatchSize,
		BatchTimeout: time.Duration(c.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: c.KafkaRequiredAcks,
		Compression:  c.KafkaCompression,
	}
}

func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName: c.AppName,
		Exporter:    c.TracingExporter,
		OTLP: exporters.OTLPConfig{
			Endpoint: c.OTLPEndpoint,
			Protocol: c.OTLPProtocol,
			Insecure: c.OTLPInsecure,
			Headers:  exporters.ParseHeaders(c.OTLPHeaders),
			Timeout:  c.OTLPTimeout,
		},
	}
}
