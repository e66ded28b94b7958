package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/config"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "ecommerce", cfg.PipelineName)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.SleepInterval)
	assert.Equal(t, "database", cfg.WatermarkBackend)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ETL_BATCH_SIZE", "250")
	t.Setenv("ETL_SLEEP_INTERVAL", "750ms")
	t.Setenv("WATERMARK_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/fern.db")

	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 750*time.Millisecond, cfg.SleepInterval)
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka().Brokers)

	db := cfg.Database()
	assert.Equal(t, "sqlite3", db.Driver)
	assert.Equal(t, "/tmp/fern.db", db.Path)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PIPELINE_NAME=nightly\nETL_BATCH_SIZE=42\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("PIPELINE_NAME")
		_ = os.Unsetenv("ETL_BATCH_SIZE")
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", cfg.PipelineName)
	assert.Equal(t, 42, cfg.BatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown watermark backend", key: "WATERMARK_BACKEND", value: "etcd"},
		{name: "zero batch size", key: "ETL_BATCH_SIZE", value: "0"},
		{name: "unknown driver", key: "DB_DRIVER", value: "mysql"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestConfig_Tracing(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x")
	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	tc := cfg.Tracing()
	assert.Equal(t, "fern", tc.ServiceName)
	assert.Equal(t, "grpc", tc.OTLP.Protocol)
	assert.Equal(t, "Bearer x", tc.OTLP.Headers["authorization"])
}
