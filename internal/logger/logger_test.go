package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New(Options{Level: "chatty"})
		assert.Error(t, err)
	})

	t.Run("writes json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		l, err := New(Options{Level: "debug", File: path})
		require.NoError(t, err)
		l.Info("merged", "rows", 3)
		l.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"merged"`)
		assert.Contains(t, string(data), `"rows":3`)
	})
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("run_id", "abc")
	l.Warn("clamped", "row", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "clamped", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc", ctx["run_id"])
	assert.Equal(t, int64(2), ctx["row"])
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.With("run_id", "x").Info("ignored", "rows", 1)
		l.Warn("ignored")
		l.Sync()
	})
}

func TestCallerIsCallSite(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core, zap.AddCaller()))
	l.Debug("here")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Caller.Defined)
	assert.Equal(t, "logger_test.go", filepath.Base(entries[0].Caller.File))
}
