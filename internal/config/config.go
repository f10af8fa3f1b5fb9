package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "siescli/internal/errors"
)

// Config represents the complete application configuration.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Cleaning   CleaningConfig   `yaml:"cleaning" envconfig:"CLEANING"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
}

// PipelineConfig contains the run-level settings.
type PipelineConfig struct {
	TargetRegion     string  `yaml:"target_region" envconfig:"TARGET_REGION"`
	QualityThreshold float64 `yaml:"quality_threshold" envconfig:"QUALITY_THRESHOLD"`
	SourceFile       string  `yaml:"source_file" envconfig:"SOURCE_FILE"`
	SheetName        string  `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// CleaningConfig drives the cleaner's per-column behavior.
// MissingPolicy maps canonical column names to one of: drop (remove the
// row), zero (impute 0), unknown (impute the text "Desconocido"). Columns
// not listed keep their missing values absent.
type CleaningConfig struct {
	MissingPolicy       map[string]string `yaml:"missing_policy" envconfig:"MISSING_POLICY"`
	SparseColumnPercent float64           `yaml:"sparse_column_percent" envconfig:"SPARSE_COLUMN_PERCENT"`
	OutlierBounds       map[string]string `yaml:"outlier_bounds" envconfig:"OUTLIER_BOUNDS"`
}

// ValidationConfig contains the business rule set.
type ValidationConfig struct {
	RequiredColumns []string `yaml:"required_columns" envconfig:"REQUIRED_COLUMNS"`
	YearMin         int      `yaml:"year_min" envconfig:"YEAR_MIN"`
	YearMax         int      `yaml:"year_max" envconfig:"YEAR_MAX"`
	QuantityMin     int      `yaml:"quantity_min" envconfig:"QUANTITY_MIN"`
	QuantityMax     int      `yaml:"quantity_max" envconfig:"QUANTITY_MAX"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
	Output string `yaml:"output" envconfig:"OUTPUT"`
}

// PathsConfig contains the data directory layout, relative to the
// working directory unless absolute.
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	CleanDir     string `yaml:"clean_dir" envconfig:"CLEAN_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Load builds the configuration in three layers: built-in defaults, a
// YAML config file when present, then SIES_* environment variables.
// Later layers win.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigurationError(configFile, "failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigurationError(configFile, "failed to parse config file", err)
		}
	}

	if err := envconfig.Process("SIES", cfg); err != nil {
		return nil, apperrors.NewConfigurationError("env", "failed to load config from environment", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the configuration invariants.
func (c *Config) validate() error {
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 100 {
		return apperrors.NewConfigurationError("pipeline.quality_threshold",
			fmt.Sprintf("quality threshold must be within [0,100], got %.1f", c.Pipeline.QualityThreshold), nil)
	}
	if strings.TrimSpace(c.Pipeline.TargetRegion) == "" {
		return apperrors.NewConfigurationError("pipeline.target_region", "target region must not be empty", nil)
	}
	if c.Validation.YearMin > c.Validation.YearMax {
		return apperrors.NewConfigurationError("validation.year_min",
			fmt.Sprintf("year range is inverted: [%d,%d]", c.Validation.YearMin, c.Validation.YearMax), nil)
	}
	if c.Validation.QuantityMin > c.Validation.QuantityMax {
		return apperrors.NewConfigurationError("validation.quantity_min",
			fmt.Sprintf("quantity range is inverted: [%d,%d]", c.Validation.QuantityMin, c.Validation.QuantityMax), nil)
	}
	for col, policy := range c.Cleaning.MissingPolicy {
		switch policy {
		case "drop", "zero", "unknown":
		default:
			return apperrors.NewConfigurationError("cleaning.missing_policy",
				fmt.Sprintf("unknown missing-value policy %q for column %q", policy, col), nil)
		}
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "both"
	}
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	return nil
}

// findConfigFile returns the first config file found in the usual
// locations, or an empty string to run from env vars only.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			TargetRegion:     "Los Ríos",
			QualityThreshold: 75,
		},
		Cleaning: CleaningConfig{
			MissingPolicy: map[string]string{
				"region":             "drop",
				"cantidad_titulados": "zero",
			},
			SparseColumnPercent: 90,
			OutlierBounds: map[string]string{
				"cantidad_titulados": "0..10000",
			},
		},
		Validation: ValidationConfig{
			RequiredColumns: []string{"region", "ano_titulacion"},
			YearMin:         1990,
			YearMax:         2030,
			QuantityMin:     0,
			QuantityMax:     10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "both",
		},
		Paths: PathsConfig{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			CleanDir:     "data/clean",
			LogsDir:      "logs",
		},
	}
}
