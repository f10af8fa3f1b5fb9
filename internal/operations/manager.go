package operations

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"siescli/internal/config"
	"siescli/internal/dataprocessing"
	apperrors "siescli/internal/errors"
	"siescli/internal/exporter"
	"siescli/internal/files"
	"siescli/internal/infrastructure"
	"siescli/internal/validation"
	"siescli/pkg/contracts/domain"
)

// Mode selects which portion of the pipeline a run executes.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeExtractOnly Mode = "extract"
	ModeValidate    Mode = "validate"
	ModeSummary     Mode = "summary"
)

// RunOptions parameterizes a single pipeline run.
type RunOptions struct {
	Mode       Mode
	SourceFile string // empty: newest spreadsheet in the raw directory
	OutputFile string // empty: derived from the target region
}

// Manager wires the pipeline stages together and executes runs.
type Manager struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a pipeline manager.
func NewManager(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, paths: paths, logger: logger}
}

// Run executes the pipeline in the requested mode and returns the run
// result. The returned error carries the failing stage's tag.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*domain.ProcessingResult, error) {
	start := time.Now()
	runID := infrastructure.GetRunID(ctx)
	if runID == "" {
		runID = infrastructure.NewRunID()
		ctx = infrastructure.WithRunID(ctx, runID)
	}
	logger := m.logger.With(slog.String("run_id", runID))
	pipeline := NewPipeline(runID)

	logger.Info("pipeline run started",
		slog.String("mode", string(opts.Mode)),
		slog.String("target_region", m.cfg.Pipeline.TargetRegion))

	result, err := m.run(ctx, pipeline, opts, logger)
	if err != nil {
		pipeline.MarkFailed()
		logger.Error("pipeline run failed",
			slog.String("stage", string(apperrors.StageOf(err))),
			slog.String("state", string(pipeline.State())),
			slog.String("error", err.Error()))
		return &domain.ProcessingResult{
			Success:  false,
			Message:  err.Error(),
			Duration: time.Since(start),
		}, err
	}

	result.Success = true
	result.Duration = time.Since(start)
	logger.Info("pipeline run completed",
		slog.String("state", string(pipeline.State())),
		slog.Int("records_processed", result.RecordsProcessed),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (m *Manager) run(ctx context.Context, pipeline *Pipeline, opts RunOptions, logger *slog.Logger) (*domain.ProcessingResult, error) {
	if opts.Mode == ModeValidate && strings.HasSuffix(strings.ToLower(opts.SourceFile), ".csv") {
		return m.validateCSV(opts.SourceFile, logger)
	}

	source, err := m.resolveSource(opts.SourceFile)
	if err != nil {
		return nil, err
	}

	// Extraction
	stage := NewStageState("extract", "Extraction")
	stage.Start()
	extractor := dataprocessing.NewExtractor(m.cfg.Pipeline.SheetName, logger)
	raw, err := extractor.Extract(source)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	stage.Complete(fmt.Sprintf("%d rows extracted", raw.Len()))
	if err := pipeline.Advance(StateExtracted); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Mode == ModeExtractOnly {
		return m.writeExtracted(raw, source, logger)
	}

	// Cleaning
	stage = NewStageState("clean", "Cleaning")
	stage.Start()
	cleaner, err := dataprocessing.NewCleaner(m.cfg.Cleaning, m.cfg.Validation.RequiredColumns, logger)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	cleaned, stats, err := cleaner.Clean(raw)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	stage.Complete(fmt.Sprintf("%d rows kept, %d duplicates removed, %d rows dropped",
		cleaned.Len(), stats.DuplicatesRemoved, stats.RowsDropped))
	if err := pipeline.Advance(StateCleaned); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter := dataprocessing.NewRegionalFilter(m.cfg.Pipeline.TargetRegion, logger)
	writer := exporter.NewCSVWriter(m.paths)
	loader := exporter.NewLoader(writer, m.cfg.Pipeline.QualityThreshold, logger)

	if opts.Mode == ModeSummary {
		summary := filter.BuildRegionalSummary(cleaned)
		path, err := loader.WriteRegionalSummary(summary, m.paths.GetProcessedPath(summaryFileName(filter.Target())))
		if err != nil {
			return nil, err
		}
		return &domain.ProcessingResult{
			Message:          fmt.Sprintf("regional summary written: %d of %d records in %s", summary.TargetRecords, summary.TotalRecords, summary.TargetRegion),
			RecordsProcessed: summary.TotalRecords,
			OutputPath:       path,
		}, nil
	}

	// Regional filtering. The summary is built before filtering so the
	// by-region breakdown still covers every region.
	stage = NewStageState("filter", "Regional filtering")
	stage.Start()
	summary := filter.BuildRegionalSummary(cleaned)
	regional, err := filter.Filter(cleaned)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	stage.Complete(fmt.Sprintf("%d of %d rows match %s", regional.Len(), cleaned.Len(), filter.Target()))
	if err := pipeline.Advance(StateFiltered); err != nil {
		return nil, err
	}

	// Validation
	stage = NewStageState("validate", "Quality validation")
	stage.Start()
	qv := validation.NewQualityValidator(m.cfg.Validation, logger)
	report, err := qv.Validate(regional)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	stage.Complete(fmt.Sprintf("quality score %.1f%%", report.QualityScore()))
	if err := pipeline.Advance(StateValidated); err != nil {
		return nil, err
	}

	if opts.Mode == ModeValidate {
		return &domain.ProcessingResult{
			Message:          validation.RenderReport(report),
			RecordsProcessed: report.TotalRecords,
			QualityReport:    report,
		}, nil
	}

	if err := qv.EnforceThreshold(report, m.cfg.Pipeline.QualityThreshold); err != nil {
		return nil, err
	}
	final := qv.RemoveInvalid(regional)

	// Loading
	stage = NewStageState("load", "Loading")
	stage.Start()
	outputFile := opts.OutputFile
	if outputFile == "" {
		outputFile = m.paths.GetCleanPath(outputFileName(filter.Target()))
	}
	path, err := loader.Load(final, report, exporter.LoadMetadata{
		SourceFile:   source,
		TargetRegion: filter.Target(),
	}, outputFile)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	stage.Complete(fmt.Sprintf("%d records written", final.Len()))
	if err := pipeline.Advance(StateLoaded); err != nil {
		return nil, err
	}

	if _, err := loader.WriteRegionalSummary(summary, m.paths.GetProcessedPath(summaryFileName(filter.Target()))); err != nil {
		logger.Warn("failed to write regional summary", slog.String("error", err.Error()))
	}

	return &domain.ProcessingResult{
		Message:          fmt.Sprintf("%d records loaded with quality score %.1f%%", final.Len(), report.QualityScore()),
		RecordsProcessed: final.Len(),
		OutputPath:       path,
		QualityReport:    report,
	}, nil
}

// resolveSource returns the spreadsheet to process, defaulting to the
// newest one in the raw data directory.
func (m *Manager) resolveSource(sourceFile string) (string, error) {
	if sourceFile != "" {
		return sourceFile, nil
	}
	latest, err := files.FindLatestSpreadsheet(m.paths.RawDir)
	if err != nil {
		return "", apperrors.NewExtractionError(m.paths.RawDir, "no source file given and none found", err)
	}
	m.logger.Info("using newest spreadsheet in raw directory", slog.String("file", latest))
	return latest, nil
}

// writeExtracted dumps the raw extraction as CSV, without cleaning or
// quality gating.
func (m *Manager) writeExtracted(rs *domain.RowSet, source string, logger *slog.Logger) (*domain.ProcessingResult, error) {
	records := make([][]string, 0, rs.Len())
	for _, row := range rs.Rows {
		record := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			record[i] = row[col]
		}
		records = append(records, record)
	}
	writer := exporter.NewCSVWriter(m.paths)
	path := m.paths.GetProcessedPath("extraccion_cruda.csv")
	if err := writer.WriteSimpleCSV(path, rs.Columns, records); err != nil {
		return nil, apperrors.NewLoadingError(path, "failed to write extracted CSV", err)
	}
	logger.Info("extraction written", slog.String("path", path), slog.Int("rows", rs.Len()))
	return &domain.ProcessingResult{
		Message:          fmt.Sprintf("%d rows extracted from %s", rs.Len(), source),
		RecordsProcessed: rs.Len(),
		OutputPath:       path,
	}, nil
}

// validateCSV runs the quality rules over an existing CSV file, for
// checking a previous run's output without re-extracting.
func (m *Manager) validateCSV(path string, logger *slog.Logger) (*domain.ProcessingResult, error) {
	fv := validation.NewFileValidator(logger)
	if err := fv.ValidateCSVFile(path); err != nil {
		return nil, apperrors.NewValidationError(path, "CSV validation failed", err)
	}
	rs, err := readCSV(path)
	if err != nil {
		return nil, apperrors.NewValidationError(path, "failed to read CSV", err)
	}

	qv := validation.NewQualityValidator(m.cfg.Validation, logger)
	report, err := qv.Validate(rs)
	if err != nil {
		return nil, err
	}
	return &domain.ProcessingResult{
		Message:          validation.RenderReport(report),
		RecordsProcessed: report.TotalRecords,
		QualityReport:    report,
	}, nil
}

// readCSV reads a CSV file into a row set, skipping the UTF-8 BOM and
// "#" metadata lines our loader writes. Empty cells become absent values.
func readCSV(path string) (*domain.RowSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if lead, _ := br.Peek(3); bytes.Equal(lead, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	rs := domain.NewRowSet(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(domain.Row, len(header))
		for i, col := range rs.Columns {
			if i >= len(record) {
				continue
			}
			val := strings.TrimSpace(record[i])
			if val == "" {
				continue
			}
			row[col] = val
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func outputFileName(region string) string {
	return fmt.Sprintf("titulados_%s.csv", regionSlug(region))
}

func summaryFileName(region string) string {
	return fmt.Sprintf("resumen_%s.csv", regionSlug(region))
}

func regionSlug(region string) string {
	return dataprocessing.NormalizeColumnName(region)
}
