package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_WritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "vsmm.log")
	var console bytes.Buffer

	log, closeFn, err := New(Options{Level: "info", File: logPath, Console: &console})
	require.NoError(t, err)

	log.Infow("cache refreshed", "mods", 3)
	log.Debugw("debug only on console")
	closeFn()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cache refreshed")
	assert.Contains(t, string(data), "mods")
	assert.NotContains(t, string(data), "debug only")
	assert.Contains(t, console.String(), "debug only on console")
}

func TestNew_NoSinksIsNop(t *testing.T) {
	log, closeFn, err := New(Options{})
	require.NoError(t, err)
	defer closeFn()
	log.Info("dropped")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
