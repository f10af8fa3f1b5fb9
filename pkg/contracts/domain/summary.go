package domain

// RegionalSummary aggregates the filtered data for reporting.
// Write-once; the loader renders it to a sibling summary file and the
// CLI prints it in regional-summary mode.
type RegionalSummary struct {
	TargetRegion        string         `json:"target_region"`
	TotalRecords        int            `json:"total_records"`
	TargetRecords       int            `json:"target_records"`
	TargetSharePercent  float64        `json:"target_share_percent"`
	CountsByRegion      map[string]int `json:"counts_by_region"`
	CountsByYear        map[string]int `json:"counts_by_year"`
	CountsByInstitution map[string]int `json:"counts_by_institution"`
	CountsByLevel       map[string]int `json:"counts_by_level"`
}
