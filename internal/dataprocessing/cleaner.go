package dataprocessing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"siescli/internal/config"
	apperrors "siescli/internal/errors"
	"siescli/pkg/contracts/domain"
)

// CleanStats counts the rows and columns affected by each cleaning
// operation. A fully clean input yields the zero value.
type CleanStats struct {
	ColumnsRenamed    int `json:"columns_renamed"`
	ColumnsDropped    int `json:"columns_dropped"`
	TextValuesChanged int `json:"text_values_changed"`
	ValuesImputed     int `json:"values_imputed"`
	RowsDropped       int `json:"rows_dropped"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	OutliersFlagged   int `json:"outliers_flagged"`
}

// Changed reports whether any cleaning operation modified the data.
func (s CleanStats) Changed() bool {
	return s != CleanStats{}
}

// numericColumnMarkers identify numeric columns by name fragment.
var numericColumnMarkers = []string{"codigo", "cantidad", "ano", "mes", "edad"}

// titleCaseMarkers identify columns whose text is normalized to title case.
var titleCaseMarkers = []string{"nombre", "titulo", "carrera"}

// outlierBound is a parsed numeric range from CleaningConfig.OutlierBounds.
type outlierBound struct {
	min, max float64
}

// Cleaner normalizes a raw row set: column names, text values, missing
// values, duplicates, and out-of-range numerics. Cleaning is
// deterministic and idempotent.
type Cleaner struct {
	cfg      config.CleaningConfig
	required map[string]bool
	bounds   map[string]outlierBound
	logger   *slog.Logger
}

// NewCleaner creates a cleaner for the given configuration. required
// lists the canonical columns whose values must parse when present.
func NewCleaner(cfg config.CleaningConfig, required []string, logger *slog.Logger) (*Cleaner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bounds := make(map[string]outlierBound, len(cfg.OutlierBounds))
	for col, bound := range cfg.OutlierBounds {
		b, err := parseBound(bound)
		if err != nil {
			return nil, apperrors.NewConfigurationError("cleaning.outlier_bounds",
				fmt.Sprintf("invalid bound %q for column %q", bound, col), err)
		}
		bounds[col] = b
	}
	req := make(map[string]bool, len(required))
	for _, col := range required {
		req[col] = true
	}
	return &Cleaner{cfg: cfg, required: req, bounds: bounds, logger: logger}, nil
}

func parseBound(raw string) (outlierBound, error) {
	parts := strings.SplitN(raw, "..", 2)
	if len(parts) != 2 {
		return outlierBound{}, fmt.Errorf("expected min..max, got %q", raw)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return outlierBound{}, err
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return outlierBound{}, err
	}
	if min > max {
		return outlierBound{}, fmt.Errorf("inverted range %q", raw)
	}
	return outlierBound{min: min, max: max}, nil
}

// Clean applies every cleaning operation in order and returns the
// cleaned row set with per-operation counts.
func (c *Cleaner) Clean(rs *domain.RowSet) (*domain.RowSet, CleanStats, error) {
	var stats CleanStats
	if rs == nil || rs.Len() == 0 || len(rs.Columns) == 0 {
		return nil, stats, apperrors.NewTransformationError("input_validation",
			"input row set is empty", nil)
	}

	out := rs.Clone()
	c.normalizeColumnNames(out, &stats)
	c.cleanTextValues(out, &stats)
	if err := c.normalizeNumericValues(out, &stats); err != nil {
		return nil, stats, err
	}
	c.dropSparseColumns(out, &stats)
	c.applyMissingPolicy(out, &stats)
	c.removeDuplicates(out, &stats)
	c.flagOutliers(out, &stats)

	c.logger.Info("cleaning completed",
		slog.Int("rows_in", rs.Len()),
		slog.Int("rows_out", out.Len()),
		slog.Int("duplicates_removed", stats.DuplicatesRemoved),
		slog.Int("values_imputed", stats.ValuesImputed),
		slog.Int("rows_dropped", stats.RowsDropped),
		slog.Int("outliers_flagged", stats.OutliersFlagged))

	return out, stats, nil
}

// NormalizeColumnName folds a header cell to its canonical identifier:
// lowercase, accent-free, separators collapsed to single underscores.
func NormalizeColumnName(name string) string {
	folded := foldString(name)
	var b strings.Builder
	for _, r := range folded {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	normalized := b.String()
	for strings.Contains(normalized, "__") {
		normalized = strings.ReplaceAll(normalized, "__", "_")
	}
	return strings.Trim(normalized, "_")
}

func (c *Cleaner) normalizeColumnNames(rs *domain.RowSet, stats *CleanStats) {
	renames := make(map[string]string, len(rs.Columns))
	seen := make(map[string]int, len(rs.Columns))
	newColumns := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		name := NormalizeColumnName(col)
		if name == "" {
			name = fmt.Sprintf("columna_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		newColumns[i] = name
		if name != col {
			renames[col] = name
			stats.ColumnsRenamed++
		}
	}
	if len(renames) == 0 {
		return
	}
	rs.Columns = newColumns
	for _, row := range rs.Rows {
		for old, name := range renames {
			if v, ok := row[old]; ok {
				delete(row, old)
				row[name] = v
			}
		}
	}
}

func isTextColumn(col string) bool {
	for _, marker := range numericColumnMarkers {
		if strings.Contains(col, marker) {
			return false
		}
	}
	return true
}

func wantsTitleCase(col string) bool {
	for _, marker := range titleCaseMarkers {
		if strings.Contains(col, marker) {
			return true
		}
	}
	return false
}

func (c *Cleaner) cleanTextValues(rs *domain.RowSet, stats *CleanStats) {
	for _, col := range rs.Columns {
		if !isTextColumn(col) {
			continue
		}
		title := wantsTitleCase(col)
		for _, row := range rs.Rows {
			val, ok := row[col]
			if !ok {
				continue
			}
			if isNullWord(val) {
				delete(row, col)
				stats.TextValuesChanged++
				continue
			}
			cleaned := collapseWhitespace(val)
			if title {
				cleaned = properCase(cleaned)
			}
			if cleaned != val {
				row[col] = cleaned
				stats.TextValuesChanged++
			}
		}
	}
}

// normalizeNumericValues strips thousand separators and verifies that
// numeric cells parse. An unparseable value in a required column is a
// transformation error; elsewhere the value becomes absent.
func (c *Cleaner) normalizeNumericValues(rs *domain.RowSet, stats *CleanStats) error {
	for _, col := range rs.Columns {
		if isTextColumn(col) {
			continue
		}
		for i, row := range rs.Rows {
			val, ok := row[col]
			if !ok {
				continue
			}
			if isNullWord(val) {
				delete(row, col)
				stats.TextValuesChanged++
				continue
			}
			cleaned := strings.ReplaceAll(collapseWhitespace(val), ",", "")
			if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
				if c.required[col] {
					return apperrors.NewTransformationError("numeric_normalization",
						fmt.Sprintf("row %d: unparseable value %q in required column %q", i+1, val, col), err)
				}
				delete(row, col)
				stats.TextValuesChanged++
				continue
			}
			if cleaned != val {
				row[col] = cleaned
				stats.TextValuesChanged++
			}
		}
	}
	return nil
}

// dropSparseColumns removes columns whose missing share exceeds the
// configured percentage. Required columns are never dropped.
func (c *Cleaner) dropSparseColumns(rs *domain.RowSet, stats *CleanStats) {
	if c.cfg.SparseColumnPercent <= 0 || rs.Len() == 0 {
		return
	}
	total := float64(rs.Len())
	kept := rs.Columns[:0]
	for _, col := range rs.Columns {
		missing := 0
		for _, row := range rs.Rows {
			if _, ok := row[col]; !ok {
				missing++
			}
		}
		pct := float64(missing) / total * 100
		if pct > c.cfg.SparseColumnPercent && !c.required[col] {
			for _, row := range rs.Rows {
				delete(row, col)
			}
			stats.ColumnsDropped++
			c.logger.Warn("dropping sparse column",
				slog.String("column", col),
				slog.Float64("missing_percent", pct))
			continue
		}
		kept = append(kept, col)
	}
	rs.Columns = kept
}

func (c *Cleaner) applyMissingPolicy(rs *domain.RowSet, stats *CleanStats) {
	keep := rs.Rows[:0]
	for _, row := range rs.Rows {
		dropRow := false
		for _, col := range rs.Columns {
			if _, ok := row[col]; ok {
				continue
			}
			switch c.cfg.MissingPolicy[col] {
			case "drop":
				dropRow = true
			case "zero":
				row[col] = "0"
				stats.ValuesImputed++
			case "unknown":
				row[col] = "Desconocido"
				stats.ValuesImputed++
			}
			if dropRow {
				break
			}
		}
		if dropRow {
			stats.RowsDropped++
			continue
		}
		keep = append(keep, row)
	}
	rs.Rows = keep
}

// removeDuplicates drops rows identical across every declared column.
func (c *Cleaner) removeDuplicates(rs *domain.RowSet, stats *CleanStats) {
	seen := make(map[string]struct{}, len(rs.Rows))
	keep := rs.Rows[:0]
	for _, row := range rs.Rows {
		key := row.Key(rs.Columns)
		if _, dup := seen[key]; dup {
			stats.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, row)
	}
	rs.Rows = keep
}

// flagOutliers caps numeric values outside the configured bounds.
// Rows are flagged and capped, never removed.
func (c *Cleaner) flagOutliers(rs *domain.RowSet, stats *CleanStats) {
	for col, bound := range c.bounds {
		if !rs.HasColumn(col) {
			continue
		}
		for i, row := range rs.Rows {
			val, ok := row[col]
			if !ok {
				continue
			}
			num, err := strconv.ParseFloat(val, 64)
			if err != nil {
				continue
			}
			capped := num
			if num < bound.min {
				capped = bound.min
			} else if num > bound.max {
				capped = bound.max
			}
			if capped != num {
				row[col] = strconv.FormatFloat(capped, 'f', -1, 64)
				stats.OutliersFlagged++
				c.logger.Warn("outlier capped",
					slog.String("column", col),
					slog.Int("row", i+1),
					slog.Float64("value", num),
					slog.Float64("capped_to", capped))
			}
		}
	}
}
