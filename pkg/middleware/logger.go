package middleware

import (
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/sujan-004/etl-pipeline-project/pkg/context"
)

// Logger logs one line per request. Probe and scrape paths log at debug.
func Logger(logger ectologger.Logger, quietPaths ...string) echo.MiddlewareFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			entry := logger.WithContext(req.Context()).WithFields(map[string]any{
				"request_id":    context.GetRequestID(c.Request().Context()),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"route":         c.Path(),
				"remote_ip":     c.RealIP(),
				"user_agent":    req.UserAgent(),
				"response_time": stop.Sub(start).String(),
				"response_size": strconv.FormatInt(res.Size, 10),
			})
			if quiet[c.Path()] {
				entry.Debug("Request")
			} else {
				entry.Info("Request")
			}

			return nil
		}
	}
}
