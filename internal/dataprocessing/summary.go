package dataprocessing

import (
	"siescli/pkg/contracts/domain"
)

// BuildRegionalSummary aggregates a cleaned row set into the regional
// summary: counts by region, graduation year, institution, and program
// level, plus the target region's share. The input is typically the
// pre-filter row set so the by-region breakdown covers all regions.
func (f *RegionalFilter) BuildRegionalSummary(rs *domain.RowSet) *domain.RegionalSummary {
	summary := &domain.RegionalSummary{
		TargetRegion:        f.target,
		TotalRecords:        rs.Len(),
		CountsByRegion:      map[string]int{},
		CountsByYear:        map[string]int{},
		CountsByInstitution: map[string]int{},
		CountsByLevel:       map[string]int{},
	}

	regionCol := findRegionColumn(rs)
	for _, row := range rs.Rows {
		if regionCol != "" {
			if val, ok := row[regionCol]; ok {
				summary.CountsByRegion[val]++
				if f.matches(val) {
					summary.TargetRecords++
					countInto(summary.CountsByYear, row, domain.ColGraduationYear)
					countInto(summary.CountsByInstitution, row, domain.ColInstitutionName)
					countInto(summary.CountsByLevel, row, domain.ColProgramLevel)
				}
			}
		}
	}

	if summary.TotalRecords > 0 {
		summary.TargetSharePercent = float64(summary.TargetRecords) / float64(summary.TotalRecords) * 100
	}
	return summary
}

func countInto(counts map[string]int, row domain.Row, col string) {
	if val, ok := row[col]; ok {
		counts[val]++
	}
}
