package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerUsableBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("before init", zap.String("k", "v"))
		Warn("before init")
		_ = GetLogger()
	})
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init("loud", "json", "stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitWritesToFile(t *testing.T) {
	previous := Log
	defer func() { Log = previous }()

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init("info", "json", path))

	Info("document ingested", zap.String("doc_id", "abc"))
	Debug("filtered out")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"document ingested"`)
	assert.Contains(t, string(data), `"doc_id":"abc"`)
	assert.NotContains(t, string(data), "filtered out")
}
