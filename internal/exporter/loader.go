package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	apperrors "siescli/internal/errors"
	"siescli/internal/validation"
	"siescli/pkg/contracts/domain"
)

// Loader writes the final row set to CSV. It enforces the quality gate:
// when the report's score is below the configured threshold nothing is
// written at all, so a bad run never leaves a partial output file.
type Loader struct {
	writer    *CSVWriter
	files     *validation.FileValidator
	threshold float64
	logger    *slog.Logger
}

// NewLoader creates a loader gated on the given minimum quality score.
func NewLoader(writer *CSVWriter, threshold float64, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		writer:    writer,
		files:     validation.NewFileValidator(logger),
		threshold: threshold,
		logger:    logger,
	}
}

// LoadMetadata describes the run for the output file's comment block.
type LoadMetadata struct {
	SourceFile   string
	TargetRegion string
}

// Load writes the row set to outputPath with a metadata comment block.
// Returns the resolved path of the written file.
func (l *Loader) Load(rs *domain.RowSet, report *domain.QualityReport, meta LoadMetadata, outputPath string) (string, error) {
	if rs == nil || len(rs.Columns) == 0 {
		return "", apperrors.NewLoadingError(outputPath, "nothing to load: row set is empty", nil)
	}

	score := report.QualityScore()
	if score < l.threshold {
		l.logger.Error("quality gate failed, refusing to write output",
			slog.Float64("quality_score", score),
			slog.Float64("threshold", l.threshold))
		return "", apperrors.NewLoadingError(outputPath, "quality score below threshold",
			&apperrors.DataQualityError{Score: score, Threshold: l.threshold})
	}

	fullPath := l.writer.resolvePath(outputPath)
	if err := l.files.ValidateOutputDirectory(filepath.Dir(fullPath)); err != nil {
		return "", apperrors.NewLoadingError(outputPath, "output directory check failed", err)
	}

	records := make([][]string, 0, rs.Len())
	for _, row := range rs.Rows {
		record := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			record[i] = row[col]
		}
		records = append(records, record)
	}

	comments := []string{
		fmt.Sprintf("records: %d", rs.Len()),
		fmt.Sprintf("generated: %s", time.Now().Format(time.RFC3339)),
		fmt.Sprintf("quality_score: %.1f", score),
	}
	if meta.TargetRegion != "" {
		comments = append(comments, fmt.Sprintf("target_region: %s", meta.TargetRegion))
	}
	if meta.SourceFile != "" {
		comments = append(comments, fmt.Sprintf("source: %s", filepath.Base(meta.SourceFile)))
	}

	err := l.writer.WriteCSV(outputPath, WriteOptions{
		Headers:   rs.Columns,
		Records:   records,
		Comments:  comments,
		BOMPrefix: true,
	})
	if err != nil {
		return "", apperrors.NewLoadingError(outputPath, "failed to write CSV", err)
	}

	l.logger.Info("output written",
		slog.String("path", fullPath),
		slog.Int("records", rs.Len()),
		slog.Float64("quality_score", score))
	return fullPath, nil
}

// WriteRegionalSummary writes the aggregate breakdown as a sibling CSV
// in long form: one (section, key, value) row per count.
func (l *Loader) WriteRegionalSummary(summary *domain.RegionalSummary, outputPath string) (string, error) {
	if summary == nil {
		return "", apperrors.NewLoadingError(outputPath, "nothing to load: summary is nil", nil)
	}

	records := [][]string{
		{"total", "registros_totales", fmt.Sprintf("%d", summary.TotalRecords)},
		{"total", "registros_region", fmt.Sprintf("%d", summary.TargetRecords)},
		{"total", "porcentaje_region", fmt.Sprintf("%.2f", summary.TargetSharePercent)},
	}
	records = appendCounts(records, "por_region", summary.CountsByRegion)
	records = appendCounts(records, "por_ano", summary.CountsByYear)
	records = appendCounts(records, "por_institucion", summary.CountsByInstitution)
	records = appendCounts(records, "por_nivel", summary.CountsByLevel)

	err := l.writer.WriteCSV(outputPath, WriteOptions{
		Headers: []string{"seccion", "clave", "valor"},
		Comments: []string{
			fmt.Sprintf("target_region: %s", summary.TargetRegion),
			fmt.Sprintf("generated: %s", time.Now().Format(time.RFC3339)),
		},
		Records:   records,
		BOMPrefix: true,
	})
	if err != nil {
		return "", apperrors.NewLoadingError(outputPath, "failed to write summary CSV", err)
	}
	return l.writer.resolvePath(outputPath), nil
}

func appendCounts(records [][]string, section string, counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		records = append(records, []string{section, k, fmt.Sprintf("%d", counts[k])})
	}
	return records
}
