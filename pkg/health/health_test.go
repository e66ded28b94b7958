package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/pkg/health"
)

func ok(context.Context) error { return nil }

func down(context.Context) error { return errors.New("connection refused") }

func probe(t *testing.T, c *health.Checker, path string) (int, health.Response) {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestLiveness(t *testing.T) {
	code, body := probe(t, health.NewChecker("test"), "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, health.StatusHealthy, body.Status)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		database health.PingFunc
		redis    health.PingFunc
		code     int
		status   health.Status
	}{
		{name: "starting", ready: false, database: ok, redis: ok, code: http.StatusServiceUnavailable, status: health.StatusUnhealthy},
		{name: "healthy", ready: true, database: ok, redis: ok, code: http.StatusOK, status: health.StatusHealthy},
		{name: "redis down degrades", ready: true, database: ok, redis: down, code: http.StatusOK, status: health.StatusDegraded},
		{name: "database down", ready: true, database: down, redis: ok, code: http.StatusServiceUnavailable, status: health.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := health.NewChecker("test").
				Add("database", tt.database, true).
				Add("redis", tt.redis, false)
			c.SetReady(tt.ready)

			code, body := probe(t, c, "/health/ready")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
		})
	}
}
