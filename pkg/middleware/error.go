package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/sujan-004/etl-pipeline-project/pkg/context"
	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

// ErrorResponse is the body of every failed API call. Kind is set when the
// failure came from the pipeline.
type ErrorResponse struct {
	Message   string         `json:"message"`
	Kind      string         `json:"kind,omitempty"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// Error renders handler errors as ErrorResponse. Client errors log at warn,
// everything else at error.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		code, body := describe(err)

		entry := logger.WithContext(ctx).WithError(err).WithField("status", code)
		if code < http.StatusInternalServerError {
			entry.Warnf("api is returning %d", code)
		} else {
			entry.Errorf("api is returning %d", code)
		}

		if c.Response().Committed {
			return
		}

		body.RequestID = context.GetRequestID(ctx)
		body.TraceID = tracing.GetTraceID(ctx)
		_ = c.JSON(code, body)
	}
}

func describe(err error) (int, ErrorResponse) {
	code := http.StatusInternalServerError
	body := ErrorResponse{Message: http.StatusText(code), Meta: map[string]any{}}

	var pe *etlerrors.PipelineError
	if errors.As(err, &pe) {
		body.Kind = string(pe.Kind)
		err = pe.ToHTTPError()
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(code)
		}
	}

	if httperror.IsHTTPError(err) {
		httperr := httperror.ToHTTPError(err)
		code = httperror.GetStatusCode(err)
		body.Message = httperr.Error()
		if httperr.Meta != nil {
			body.Meta = httperr.Meta
		}
	}

	return code, body
}
