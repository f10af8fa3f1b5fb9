package dataprocessing

import (
	"log/slog"
	"sort"
	"strings"

	apperrors "siescli/internal/errors"
	"siescli/pkg/contracts/domain"
)

// regionVariations lists alternative spellings seen in source data for
// a folded region name. Matching always includes the target itself.
var regionVariations = map[string][]string{
	"los rios": {"de los rios", "region de los rios", "xiv region"},
}

// RegionalFilter selects the rows belonging to one administrative
// region, matching case- and accent-insensitively.
type RegionalFilter struct {
	target     string
	variations []string
	logger     *slog.Logger
}

// NewRegionalFilter creates a filter for the given region name.
func NewRegionalFilter(target string, logger *slog.Logger) *RegionalFilter {
	if logger == nil {
		logger = slog.Default()
	}
	folded := foldString(target)
	variations := append([]string{folded}, regionVariations[folded]...)
	return &RegionalFilter{target: target, variations: variations, logger: logger}
}

// Target returns the configured region name.
func (f *RegionalFilter) Target() string {
	return f.target
}

// Filter returns the subset of rows whose region matches the target.
// Zero matches is a warning, not an error; the returned set is empty.
func (f *RegionalFilter) Filter(rs *domain.RowSet) (*domain.RowSet, error) {
	if rs == nil || len(rs.Columns) == 0 {
		return nil, apperrors.NewTransformationError("regional_filter",
			"input row set is empty", nil)
	}
	regionCol := findRegionColumn(rs)
	if regionCol == "" {
		return nil, apperrors.NewTransformationError("regional_filter",
			"no region column found in row set", nil)
	}

	out := domain.NewRowSet(rs.Columns)
	for _, row := range rs.Rows {
		if val, ok := row[regionCol]; ok && f.matches(val) {
			out.Rows = append(out.Rows, row)
		}
	}

	if out.Len() == 0 {
		f.logger.Warn("no rows matched target region",
			slog.String("target_region", f.target),
			slog.Any("available_regions", availableRegions(rs, regionCol)))
	} else {
		f.logger.Info("regional filtering completed",
			slog.String("target_region", f.target),
			slog.Int("rows_in", rs.Len()),
			slog.Int("rows_out", out.Len()))
	}
	return out, nil
}

// matches reports whether a region cell belongs to the target region.
func (f *RegionalFilter) matches(value string) bool {
	folded := foldString(value)
	for _, v := range f.variations {
		if folded == v || strings.Contains(folded, v) {
			return true
		}
	}
	return false
}

// findRegionColumn locates the region column by canonical or raw name.
func findRegionColumn(rs *domain.RowSet) string {
	if rs.HasColumn(domain.ColRegion) {
		return domain.ColRegion
	}
	for _, col := range rs.Columns {
		if strings.Contains(foldString(col), "region") {
			return col
		}
	}
	return ""
}

// availableRegions lists the distinct region values, sorted, for the
// zero-match warning.
func availableRegions(rs *domain.RowSet, regionCol string) []string {
	set := make(map[string]struct{})
	for _, row := range rs.Rows {
		if val, ok := row[regionCol]; ok {
			set[val] = struct{}{}
		}
	}
	regions := make([]string, 0, len(set))
	for r := range set {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
