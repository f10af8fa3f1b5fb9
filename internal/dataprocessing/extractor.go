package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "siescli/internal/errors"
	"siescli/internal/validation"
	"siescli/pkg/contracts/domain"
)

// headerKeywords identify the header row of a graduation spreadsheet.
// A row matching at least two of these (accent-insensitively) is taken
// as the header; banner and title rows above it are skipped.
var headerKeywords = []string{
	"region", "institucion", "carrera", "titulacion", "titulados",
	"cantidad", "nivel", "ano", "año", "provincia", "comuna",
}

// Extractor reads a graduation-statistics spreadsheet into a row set.
type Extractor struct {
	sheetName string
	files     *validation.FileValidator
	logger    *slog.Logger
}

// NewExtractor creates an extractor. sheetName may be empty to select
// the first sheet containing a recognizable header.
func NewExtractor(sheetName string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		sheetName: sheetName,
		files:     validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Extract reads the spreadsheet at path and returns its rows.
// It fails with an extraction error when the file is missing, is not a
// spreadsheet, or contains no data rows. Reading has no side effects.
func (e *Extractor) Extract(path string) (*domain.RowSet, error) {
	if err := e.files.ValidateSpreadsheetFile(path); err != nil {
		return nil, apperrors.NewExtractionError(path, "source validation failed", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewExtractionError(path, "failed to open spreadsheet", err)
	}
	defer f.Close()

	rows, sheet, err := e.pickSheet(f)
	if err != nil {
		return nil, apperrors.NewExtractionError(path, "no usable sheet found", err)
	}

	headerIdx, header := findHeaderRow(rows)
	if headerIdx < 0 {
		return nil, apperrors.NewExtractionError(path, "could not locate header row", nil)
	}

	rs := domain.NewRowSet(header)
	for _, raw := range rows[headerIdx+1:] {
		row := make(domain.Row, len(header))
		empty := true
		for i, col := range header {
			if i >= len(raw) {
				continue
			}
			val := strings.TrimSpace(raw[i])
			if val == "" {
				continue
			}
			row[col] = val
			empty = false
		}
		if empty {
			continue
		}
		rs.Rows = append(rs.Rows, row)
	}

	if rs.Len() == 0 {
		return nil, apperrors.NewExtractionError(path, "spreadsheet contains no data rows", nil)
	}

	e.logger.Info("extraction completed",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("rows", rs.Len()),
		slog.Int("columns", len(rs.Columns)))

	return rs, nil
}

// pickSheet returns the rows of the configured sheet, or of the first
// sheet whose early rows look like a graduation table.
func (e *Extractor) pickSheet(f *excelize.File) ([][]string, string, error) {
	if e.sheetName != "" {
		rows, err := f.GetRows(e.sheetName)
		if err != nil {
			return nil, "", fmt.Errorf("sheet %q: %w", e.sheetName, err)
		}
		return rows, e.sheetName, nil
	}

	sheets := f.GetSheetList()
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		if idx, _ := findHeaderRow(rows); idx >= 0 {
			return rows, name, nil
		}
	}
	return nil, "", fmt.Errorf("none of %d sheets contains a recognizable header", len(sheets))
}

// findHeaderRow scans the leading rows for the header and returns its
// index and cell values. Trailing empty header cells are dropped;
// unnamed interior columns get positional names.
func findHeaderRow(rows [][]string) (int, []string) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		matches := 0
		for _, cell := range rows[i] {
			folded := foldString(cell)
			for _, kw := range headerKeywords {
				if strings.Contains(folded, kw) {
					matches++
					break
				}
			}
		}
		if matches >= 2 {
			return i, headerNames(rows[i])
		}
	}
	return -1, nil
}

func headerNames(raw []string) []string {
	last := -1
	for i, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			last = i
		}
	}
	header := make([]string, 0, last+1)
	for i := 0; i <= last; i++ {
		name := strings.TrimSpace(raw[i])
		if name == "" {
			name = fmt.Sprintf("columna_%d", i+1)
		}
		header = append(header, name)
	}
	return header
}
