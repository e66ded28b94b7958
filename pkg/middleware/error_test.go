package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/internal/testutil"
	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/middleware"
)

func TestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantKind    string
		wantMessage string
	}{
		{
			name:        "plain error",
			err:         assert.AnError,
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
		{
			name:        "echo error",
			err:         echo.NewHTTPError(http.StatusConflict, "a run is already in progress"),
			wantCode:    http.StatusConflict,
			wantMessage: "a run is already in progress",
		},
		{
			name:        "http error",
			err:         httperror.NewHTTPError(http.StatusNotFound, "no run has finished yet"),
			wantCode:    http.StatusNotFound,
			wantMessage: "no run has finished yet",
		},
		{
			name:     "fatal pipeline error",
			err:      etlerrors.New(etlerrors.KindFatal, "database unreachable"),
			wantCode: http.StatusServiceUnavailable,
			wantKind: string(etlerrors.KindFatal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = middleware.Error(testutil.NewLogger())
			e.Use(middleware.Context())
			e.GET("/", func(echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, tt.wantCode, rec.Code)

			var body middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.RequestID)
			assert.NotNil(t, body.Meta)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Message)
			} else {
				assert.Contains(t, body.Message, "database unreachable")
			}
		})
	}
}
