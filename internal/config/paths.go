package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Paths resolves the data directory layout for one invocation.
// This is the single source of truth for file locations: raw spreadsheets
// under RawDir, summaries under ProcessedDir, final output under CleanDir.
type Paths struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string
	CleanDir     string
	LogsDir      string
}

// NewPaths builds the path layout from configuration. Relative
// directories resolve against the current working directory.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return &Paths{
		BaseDir:      base,
		RawDir:       resolve(base, cfg.RawDir),
		ProcessedDir: resolve(base, cfg.ProcessedDir),
		CleanDir:     resolve(base, cfg.CleanDir),
		LogsDir:      resolve(base, cfg.LogsDir),
	}, nil
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// EnsureDirectories creates the full directory layout.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.RawDir, p.ProcessedDir, p.CleanDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetRawPath returns the path of a file in the raw data directory.
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetCleanPath returns the path of a file in the clean data directory.
func (p *Paths) GetCleanPath(filename string) string {
	return filepath.Join(p.CleanDir, filename)
}

// GetProcessedPath returns the path of a file in the processed directory.
func (p *Paths) GetProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filename)
}

// GetLogPath returns the daily general log file for the given day.
func (p *Paths) GetLogPath(day time.Time) string {
	return filepath.Join(p.LogsDir, fmt.Sprintf("etl_%s.log", day.Format("2006-01-02")))
}

// GetErrorLogPath returns the daily error-only log file for the given day.
func (p *Paths) GetErrorLogPath(day time.Time) string {
	return filepath.Join(p.LogsDir, fmt.Sprintf("etl_errors_%s.log", day.Format("2006-01-02")))
}
