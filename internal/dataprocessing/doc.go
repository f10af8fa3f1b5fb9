// Package dataprocessing implements the tabular stages of the ETL
// pipeline: spreadsheet extraction, cleaning, and regional filtering.
// Each stage is a function from a row set plus configuration to a new
// row set plus diagnostics, so the pipeline is testable without a
// filesystem.
package dataprocessing
