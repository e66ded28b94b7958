package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appctx "github.com/sujan-004/etl-pipeline-project/pkg/context"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, appctx.GetRunID(ctx))
	assert.Empty(t, appctx.LogFields(ctx))

	ctx = appctx.SetRunID(ctx, "run-1")
	ctx = appctx.SetPipeline(ctx, "ecommerce")
	ctx = appctx.SetRequestID(ctx, "req-1")
	ctx = appctx.SetRoute(ctx, "/runs/last")

	assert.Equal(t, "run-1", appctx.GetRunID(ctx))
	assert.Equal(t, "ecommerce", appctx.GetPipeline(ctx))
	assert.Equal(t, "/runs/last", appctx.GetRoute(ctx))
	assert.Equal(t, map[string]any{
		"request_id": "req-1",
		"run_id":     "run-1",
		"pipeline":   "ecommerce",
	}, appctx.LogFields(ctx))
}
