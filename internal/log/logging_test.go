package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace": LevelTrace,
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestConsoleSplit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setupLogger("debug", "", &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("stick moved", "x", 0.5)
	logger.Info("keyboard shown")
	logger.Error("device gone")
	logger.Log(t.Context(), LevelTrace, "raw")

	assert.Contains(t, stdout.String(), "stick moved")
	assert.Contains(t, stdout.String(), "keyboard shown")
	assert.NotContains(t, stdout.String(), "device gone")
	assert.NotContains(t, stdout.String(), "raw")
	assert.Contains(t, stderr.String(), "device gone")
	assert.NotContains(t, stderr.String(), "keyboard shown")
}

func TestFileHandler(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "padboard.log")

	logger, closers, err := setupLogger("warn", path, &stdout, &stderr)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Info("hidden")
	logger.Warn("read failed", "device", "/dev/input/event3")
	require.NoError(t, closers[0].Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "read failed")
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, stderr.String(), "read failed")
	assert.Empty(t, stdout.String())
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	NewRaw(&buf).Log("/dev/input/event3", []byte{0x01, 0xab, 0xff})
	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "/dev/input/event3 chunk: 3 bytes, hex: 01 ab ff\n"), line)

	buf.Reset()
	NewRaw(&buf).Log("x", nil)
	assert.Empty(t, buf.String())

	assert.NotPanics(t, func() { NewRaw(nil).Log("x", []byte{1}) })
}
