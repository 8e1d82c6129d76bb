package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLogging "github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/logging"
)

func TestConsoleLogger_DropsEntriesBelowLevel(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := logging.NewConsoleLoggerTo(&buf, "warn", "text", nil)

	// Act
	logger.Log(appLogging.LevelInfo, "sweep finished", nil)
	logger.Log(appLogging.LevelWarning, "recipe unavailable", map[string]interface{}{"recipe_id": "r-1"})

	// Assert
	out := buf.String()
	assert.NotContains(t, out, "sweep finished")
	assert.Contains(t, out, "recipe unavailable")
	assert.Contains(t, out, "recipe_id=r-1")
}

func TestConsoleLogger_JSONFormat(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := logging.NewConsoleLoggerTo(&buf, "debug", "json", nil)

	// Act
	logger.Log(appLogging.LevelError, "trigger failed", map[string]interface{}{"task_id": "t-1"})

	// Assert
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "trigger failed", entry["msg"])
	assert.Equal(t, "t-1", entry["task_id"])
}
