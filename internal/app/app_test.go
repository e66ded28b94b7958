package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/config"
	"github.com/sujan-004/etl-pipeline-project/internal/app"
	"github.com/sujan-004/etl-pipeline-project/internal/testutil"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/watermark"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppName:                "fern",
		Version:                "test",
		StartupMaxAttempts:     1,
		DatabaseDriver:         "sqlite3",
		DatabasePath:           filepath.Join(t.TempDir(), "fern.db"),
		DatabaseMaxOpenConns:   4,
		DatabaseMigrateOnStart: true,
		PipelineName:           "ecommerce",
		BatchSize:              100,
		SleepInterval:          time.Second,
		WatermarkBackend:       watermark.BackendDatabase,
		ShutdownTimeout:        time.Second,
	}
}

func TestApp_StartRunOnceStop(t *testing.T) {
	ctx := context.Background()
	a := app.New(sqliteConfig(t), testutil.NewLogger())
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })

	require.NotNil(t, a.Orchestrator())
	assert.True(t, a.Checker().IsReady())

	report, err := a.Orchestrator().RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, report.Status)

	wm, err := a.Orchestrator().Watermark(ctx)
	require.NoError(t, err)
	require.NotNil(t, wm)
	assert.True(t, wm.Equal(report.StartedAt))
}

func TestApp_StartFailsOnBadDatabase(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "missing", "dir", "fern.db")

	a := app.New(cfg, testutil.NewLogger())
	assert.Error(t, a.Start(context.Background()))
	assert.False(t, a.Checker().IsReady())
}

func TestNewServer(t *testing.T) {
	ctx := context.Background()
	a := app.New(sqliteConfig(t), testutil.NewLogger())
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })

	e, err := app.NewServer("fern", a.Checker(), a.Orchestrator(), testutil.NewLogger())
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/runs/last", http.StatusNotFound},
		{http.MethodGet, "/watermark", http.StatusOK},
		{http.MethodPost, "/runs/trigger", http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNewStore(t *testing.T) {
	cfg := sqliteConfig(t)

	cfg.WatermarkBackend = watermark.BackendMemory
	store, err := app.NewStore(cfg, nil, nil, testutil.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, watermark.BackendMemory, store.Name())

	cfg.WatermarkBackend = watermark.BackendRedis
	_, err = app.NewStore(cfg, nil, nil, testutil.NewLogger())
	assert.Error(t, err)

	cfg.WatermarkBackend = "etcd"
	_, err = app.NewStore(cfg, nil, nil, testutil.NewLogger())
	assert.Error(t, err)
}
