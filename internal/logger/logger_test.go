package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestComponentLoggers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Store().Info("opened", "path", "x.db")
	Writer().Warn("dropped field", "field", "bogus")
	WithFields(map[string]interface{}{"table": "t", "rows": 2}).Debug("details")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "opened", entries[0].Message)
	assert.Equal(t, "store", entries[0].ContextMap()["component"])
	assert.Equal(t, "x.db", entries[0].ContextMap()["path"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "writer", entries[1].ContextMap()["component"])

	assert.Equal(t, "t", entries[2].ContextMap()["table"])
	assert.EqualValues(t, 2, entries[2].ContextMap()["rows"])
}

func TestSetLoggerRestore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := SetLogger(zap.New(core))
	Info("captured")
	restore()
	Info("not captured")

	assert.Equal(t, 1, logs.Len())
}

func TestSetup(t *testing.T) {
	defer SetLogger(zap.NewNop())()

	t.Run("invalid level", func(t *testing.T) {
		err := Setup(Options{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		err := Setup(Options{Format: "xml"})
		assert.Error(t, err)
	})

	t.Run("file output", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "logs", "dbflow.log")
		require.NoError(t, Setup(Options{Level: "info", File: file, Format: "json"}))

		Info("hello file")
		_ = Sync()

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello file")
	})
}
