package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"siescli/internal/config"
)

var (
	// globalLogger holds the application-wide logger instance
	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once
	// open log files kept for cleanup
	logFileMu        sync.Mutex
	globalFiles      []*os.File
)

// InitializeLogger creates and configures the global slog logger.
// Output is JSON; "both" and "file" modes write a daily general log and
// a daily error-only log under the configured logs directory.
func InitializeLogger(cfg config.LoggingConfig, paths *config.Paths) (*slog.Logger, error) {
	var err error
	globalLoggerOnce.Do(func() {
		globalLogger, err = createLogger(cfg, paths)
		if globalLogger != nil {
			slog.SetDefault(globalLogger)
		}
	})
	return globalLogger, err
}

// GetLogger returns the global logger instance, or the default slog
// logger if InitializeLogger has not run.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

func createLogger(cfg config.LoggingConfig, paths *config.Paths) (*slog.Logger, error) {
	level := parseLogLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var output io.Writer = os.Stdout
	var errorOutput io.Writer

	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		now := time.Now()
		general, err := openLogFile(paths.GetLogPath(now))
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		errOnly, err := openLogFile(paths.GetErrorLogPath(now))
		if err != nil {
			general.Close()
			return nil, fmt.Errorf("failed to open error log file: %w", err)
		}
		logFileMu.Lock()
		globalFiles = append(globalFiles, general, errOnly)
		logFileMu.Unlock()

		if strings.EqualFold(cfg.Output, "both") {
			output = io.MultiWriter(os.Stdout, general)
		} else {
			output = general
		}
		errorOutput = errOnly
	}

	handler := slog.Handler(slog.NewJSONHandler(output, opts))
	if errorOutput != nil {
		errHandler := slog.NewJSONHandler(errorOutput, &slog.HandlerOptions{Level: slog.LevelError})
		handler = &teeHandler{primary: handler, errors: errHandler}
	}

	return slog.New(&runIDHandler{Handler: handler}), nil
}

// teeHandler duplicates error-level records into the error-only log.
type teeHandler struct {
	primary slog.Handler
	errors  slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError && h.errors.Enabled(ctx, r.Level) {
		if err := h.errors.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return h.primary.Handle(ctx, r)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{primary: h.primary.WithAttrs(attrs), errors: h.errors.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{primary: h.primary.WithGroup(name), errors: h.errors.WithGroup(name)}
}

// runIDHandler injects the run ID from context into every record.
type runIDHandler struct {
	slog.Handler
}

func (h *runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := GetRunID(ctx); runID != "" {
		r.AddAttrs(slog.String("run_id", runID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runIDHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *runIDHandler) WithGroup(name string) slog.Handler {
	return &runIDHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CloseLogFiles closes the open log files. Called on shutdown and in tests.
func CloseLogFiles() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	var firstErr error
	for _, f := range globalFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	globalFiles = nil
	return firstErr
}

// ResetLoggerForTesting resets the global logger state.
// This should only be called in tests.
func ResetLoggerForTesting() {
	CloseLogFiles()
	globalLogger = nil
	globalLoggerOnce = sync.Once{}
}

// openLogFile opens or creates a log file in append mode.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}
