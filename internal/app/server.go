package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"

	"github.com/sujan-004/etl-pipeline-project/pkg/health"
	"github.com/sujan-004/etl-pipeline-project/pkg/middleware"
	"github.com/sujan-004/etl-pipeline-project/pkg/routes/runs"
)

const metricsPath = "/metrics"

// NewServer builds the admin HTTP surface: health probes, prometheus
// metrics, and the run endpoints. The pipeline and logger are registered in
// the default container for the run handlers.
func NewServer(serviceName string, checker *health.Checker, p runs.Pipeline, logger ectologger.Logger) (*echo.Echo, error) {
	if err := runs.Provide(p, logger); err != nil {
		return nil, fmt.Errorf("failed to register run handler dependencies: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger, "/health/live", "/health/ready", metricsPath))

	checker.RegisterRoutes(e)
	e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	runs.Register(e.Group(""))

	return e, nil
}

// Serve runs the pipeline loop and, when enabled, the admin server until ctx
// is cancelled or either of them fails.
func (a *App) Serve(ctx context.Context) error {
	if a.orchestrator == nil {
		return errors.New("app has not been started")
	}

	var handler http.Handler
	if a.cfg.HttpEnabled {
		e, err := NewServer(a.cfg.AppName, a.checker, a.orchestrator, a.logger)
		if err != nil {
			return err
		}
		handler = e
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.orchestrator.Run(gctx)
	})

	if handler != nil {
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", a.cfg.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:  time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		}

		g.Go(func() error {
			a.logger.WithField("addr", srv.Addr).Info("Admin server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
