package domain

import "time"

// QualityReport is the aggregate produced by the quality validator.
// It is created once per validation pass and not mutated afterwards.
type QualityReport struct {
	TotalRecords          int            `json:"total_records"`
	ValidRecords          int            `json:"valid_records"`
	InvalidRecords        int            `json:"invalid_records"`
	MissingValuesByColumn map[string]int `json:"missing_values_by_column"`
	DuplicateRecords      int            `json:"duplicate_records"`
	ValidationErrors      []string       `json:"validation_errors"`
}

// QualityScore is the percentage of records passing every rule,
// always within [0,100]. An empty row set scores zero.
func (r *QualityReport) QualityScore() float64 {
	if r == nil || r.TotalRecords == 0 {
		return 0
	}
	return float64(r.ValidRecords) / float64(r.TotalRecords) * 100
}

// ProcessingResult summarizes one pipeline invocation for the CLI.
type ProcessingResult struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	RecordsProcessed int            `json:"records_processed"`
	Duration         time.Duration  `json:"duration"`
	OutputPath       string         `json:"output_path,omitempty"`
	QualityReport    *QualityReport `json:"quality_report,omitempty"`
}
