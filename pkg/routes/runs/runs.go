package runs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/sujan-004/etl-pipeline-project/pkg/pipeline"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

// Pipeline is the view of the orchestrator the admin routes need.
type Pipeline interface {
	Name() string
	WatermarkBackend() string
	State() pipeline.Snapshot
	Watermark(ctx context.Context) (*time.Time, error)
	Trigger() bool
}

type WatermarkResponse struct {
	Pipeline  string     `json:"pipeline"`
	Backend   string     `json:"backend"`
	Watermark *time.Time `json:"watermark"`
}

type TriggerResponse struct {
	Pipeline  string `json:"pipeline"`
	Triggered bool   `json:"triggered"`
}

// Provide registers the pipeline and logger in the default container so the
// handlers can resolve them per request.
func Provide(p Pipeline, logger ectologger.Logger) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[Pipeline](container, p); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[ectologger.Logger](container, logger)
}

// Register registers the run routes
func Register(g *echo.Group) {
	g.GET("/runs/last", LastRun)
	g.POST("/runs/trigger", Trigger)
	g.GET("/watermark", Watermark)
}

// LastRun returns the orchestrator state including the most recent report.
func LastRun(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "runs_handler.LastRun")
	defer span.End()

	_, p, err := ectoinject.GetContext[Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	snap := p.State()
	if snap.LastRun == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no run has finished yet").AddMetaValue("running", strconv.FormatBool(snap.Running))
	}
	return c.JSON(http.StatusOK, snap)
}

// Watermark returns the stored watermark, null before the first completed run.
func Watermark(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "runs_handler.Watermark")
	defer span.End()

	ctx, p, err := ectoinject.GetContext[Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	wm, err := p.Watermark(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		if _, logger, lerr := ectoinject.GetContext[ectologger.Logger](ctx); lerr == nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to read watermark")
		}
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to read watermark").AddMetaValue("backend", p.WatermarkBackend())
	}

	return c.JSON(http.StatusOK, WatermarkResponse{
		Pipeline:  p.Name(),
		Backend:   p.WatermarkBackend(),
		Watermark: wm,
	})
}

// Trigger wakes the run loop. A trigger that is already pending is reported
// as a conflict.
func Trigger(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "runs_handler.Trigger")
	defer span.End()

	ctx, p, err := ectoinject.GetContext[Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	if !p.Trigger() {
		return httperror.NewHTTPError(http.StatusConflict, "a run is already pending")
	}

	if _, logger, err := ectoinject.GetContext[ectologger.Logger](ctx); err == nil {
		logger.WithContext(ctx).WithField("pipeline", p.Name()).Info("Run triggered over HTTP")
	}
	return c.JSON(http.StatusAccepted, TriggerResponse{
		Pipeline:  p.Name(),
		Triggered: true,
	})
}
