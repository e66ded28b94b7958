package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/pkg/logging"
)

func TestNew(t *testing.T) {
	logger, sync, err := logging.New(logging.Config{Level: "debug", Pretty: true, Fields: map[string]any{"app": "fern"}})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.WithField("pipeline", "ecommerce").Debug("logger ready")
	sync()

	_, _, err = logging.New(logging.Config{Level: "loud"})
	assert.Error(t, err)
}
