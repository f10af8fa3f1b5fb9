package operations

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"siescli/internal/config"
	apperrors "siescli/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testManager(t *testing.T) (*Manager, *config.Config, *config.Paths) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		RawDir:       filepath.Join(dir, "raw"),
		ProcessedDir: filepath.Join(dir, "processed"),
		CleanDir:     filepath.Join(dir, "clean"),
		LogsDir:      filepath.Join(dir, "logs"),
	}
	paths, err := config.NewPaths(cfg.Paths)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	return NewManager(cfg, paths, discardLogger()), cfg, paths
}

// writeFixture builds the reference spreadsheet: ten rows, one exact
// duplicate, one row missing its region, one row missing its year.
func writeFixture(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"REGIÓN", "AÑO_TITULACIÓN", "NOMBRE_INSTITUCIÓN", "CANTIDAD_TITULADOS"},
		{"Los Ríos", 2020, "Universidad Austral", 10},
		{"Los Ríos", 2020, "Universidad Austral", 10}, // exact duplicate
		{"", "", "Universidad Sin Region", 5},         // missing region: dropped while cleaning
		{"Los Ríos", "", "Instituto Valdivia", 8},     // missing year: fails validation
		{"Los Ríos", 2018, "Universidad Austral", 20},
		{"Los Ríos", 2019, "Instituto Valdivia", 15},
		{"Los Ríos", 2021, "Universidad Austral", 25},
		{"Los Ríos", 2022, "Instituto Valdivia", 30},
		{"Los Ríos", 2023, "Universidad Austral", 35},
		{"Los Ríos", 2020, "Instituto Valdivia", 40},
	}
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestRunFullPipeline(t *testing.T) {
	m, _, paths := testManager(t)
	source := paths.GetRawPath("sies.xlsx")
	writeFixture(t, source)
	out := paths.GetCleanPath("titulados_los_rios.csv")

	result, err := m.Run(context.Background(), RunOptions{
		Mode:       ModeFull,
		SourceFile: source,
		OutputFile: out,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 7, result.RecordsProcessed)
	assert.Equal(t, out, result.OutputPath)

	require.NotNil(t, result.QualityReport)
	assert.Equal(t, 8, result.QualityReport.TotalRecords)
	assert.Equal(t, 7, result.QualityReport.ValidRecords)
	assert.Equal(t, 1, result.QualityReport.InvalidRecords)
	assert.InDelta(t, 87.5, result.QualityReport.QualityScore(), 0.001)

	written, err := readCSV(out)
	require.NoError(t, err)
	assert.Equal(t, 7, written.Len())
	for _, row := range written.Rows {
		assert.Equal(t, "Los Ríos", row["region"])
		assert.NotEmpty(t, row["ano_titulacion"])
	}

	// The regional summary lands next to the processed data.
	_, statErr := os.Stat(paths.GetProcessedPath("resumen_los_rios.csv"))
	assert.NoError(t, statErr)
}

func TestRunQualityGateFailure(t *testing.T) {
	m, cfg, paths := testManager(t)
	cfg.Pipeline.QualityThreshold = 95

	source := paths.GetRawPath("sies.xlsx")
	writeFixture(t, source)
	out := paths.GetCleanPath("titulados_los_rios.csv")

	result, err := m.Run(context.Background(), RunOptions{
		Mode:       ModeFull,
		SourceFile: source,
		OutputFile: out,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStage(err, apperrors.StageDataQuality))
	assert.False(t, result.Success)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output below the quality threshold")
}

func TestRunExtractOnly(t *testing.T) {
	m, _, paths := testManager(t)
	source := paths.GetRawPath("sies.xlsx")
	writeFixture(t, source)

	result, err := m.Run(context.Background(), RunOptions{
		Mode:       ModeExtractOnly,
		SourceFile: source,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.RecordsProcessed, "extraction keeps duplicates and incomplete rows")

	raw, err := readCSV(result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 10, raw.Len())
	assert.Contains(t, raw.Columns, "REGIÓN", "extract-only output keeps raw headers")
}

func TestRunRegionalSummaryOnly(t *testing.T) {
	m, _, paths := testManager(t)
	source := paths.GetRawPath("sies.xlsx")
	writeFixture(t, source)

	result, err := m.Run(context.Background(), RunOptions{
		Mode:       ModeSummary,
		SourceFile: source,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, result.RecordsProcessed)

	_, statErr := os.Stat(result.OutputPath)
	assert.NoError(t, statErr)
}

func TestRunValidateOnlyFromCSV(t *testing.T) {
	m, _, paths := testManager(t)

	csvPath := paths.GetProcessedPath("previous.csv")
	content := "# records: 2\nregion,ano_titulacion,cantidad_titulados\nLos Ríos,2020,15\nLos Ríos,1200,10\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0644))

	result, err := m.Run(context.Background(), RunOptions{
		Mode:       ModeValidate,
		SourceFile: csvPath,
	})
	require.NoError(t, err)
	require.NotNil(t, result.QualityReport)
	assert.Equal(t, 2, result.QualityReport.TotalRecords)
	assert.Equal(t, 1, result.QualityReport.InvalidRecords)
	assert.Contains(t, result.Message, "DATA QUALITY REPORT")
}

func TestRunDefaultsToNewestSpreadsheet(t *testing.T) {
	m, _, paths := testManager(t)
	writeFixture(t, paths.GetRawPath("sies_2024.xlsx"))

	result, err := m.Run(context.Background(), RunOptions{Mode: ModeExtractOnly})
	require.NoError(t, err)
	assert.Equal(t, 10, result.RecordsProcessed)
}

func TestRunMissingSource(t *testing.T) {
	m, _, _ := testManager(t)

	_, err := m.Run(context.Background(), RunOptions{
		Mode:       ModeFull,
		SourceFile: "/does/not/exist.xlsx",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStage(err, apperrors.StageExtraction))
}

func TestRunCancelledContext(t *testing.T) {
	m, _, paths := testManager(t)
	source := paths.GetRawPath("sies.xlsx")
	writeFixture(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Run(ctx, RunOptions{Mode: ModeFull, SourceFile: source})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
