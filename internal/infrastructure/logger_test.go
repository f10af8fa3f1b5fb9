package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siescli/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), "parseLogLevel(%q)", tt.in)
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))

	id := NewRunID()
	assert.NotEmpty(t, id)
	assert.NotEqual(t, id, NewRunID())

	ctx = WithRunID(ctx, id)
	assert.Equal(t, id, GetRunID(ctx))
}

func TestDailyLogFilesAndErrorTee(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	dir := t.TempDir()
	paths := &config.Paths{LogsDir: dir}

	logger, err := createLogger(config.LoggingConfig{Level: "debug", Output: "file"}, paths)
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "extraction completed", slog.Int("rows", 10))
	logger.ErrorContext(ctx, "quality gate failed", slog.Float64("score", 60))
	require.NoError(t, CloseLogFiles())

	day := time.Now()
	general := readLogLines(t, paths.GetLogPath(day))
	errOnly := readLogLines(t, paths.GetErrorLogPath(day))

	require.Len(t, general, 2, "general log carries every record")
	require.Len(t, errOnly, 1, "error log carries errors only")

	assert.Equal(t, "extraction completed", general[0]["msg"])
	assert.Equal(t, "run-123", general[0]["run_id"], "run ID is injected from context")
	assert.Equal(t, "quality gate failed", errOnly[0]["msg"])
	assert.Equal(t, "ERROR", errOnly[0]["level"])
}

func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestLogFileNamesAreDaily(t *testing.T) {
	paths := &config.Paths{LogsDir: "/logs"}
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("/logs", "etl_2024-07-01.log"), paths.GetLogPath(day))
	assert.Equal(t, filepath.Join("/logs", "etl_errors_2024-07-01.log"), paths.GetErrorLogPath(day))
}
