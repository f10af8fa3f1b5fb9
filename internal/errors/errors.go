package errors

import (
	"errors"
	"fmt"
)

// Stage identifies which pipeline stage produced an error.
type Stage string

const (
	StageExtraction     Stage = "extraction"
	StageTransformation Stage = "transformation"
	StageValidation     Stage = "validation"
	StageLoading        Stage = "loading"
	StageConfiguration  Stage = "configuration"
	StageDataQuality    Stage = "data_quality"
)

// PipelineError is the single error type carried across stage boundaries.
// Stage acts as the tag; Source is the input reference (file path or a
// row-count description) that lets the CLI point at the offending input.
type PipelineError struct {
	Stage   Stage
	Source  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	switch {
	case e.Source != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s (source: %s): %v", e.Stage, e.Message, e.Source, e.Err)
	case e.Source != "":
		return fmt.Sprintf("[%s] %s (source: %s)", e.Stage, e.Message, e.Source)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewExtractionError tags a failure in the extraction stage.
func NewExtractionError(source, message string, cause error) *PipelineError {
	return &PipelineError{Stage: StageExtraction, Source: source, Message: message, Err: cause}
}

// NewTransformationError tags a failure in cleaning or filtering.
func NewTransformationError(step, message string, cause error) *PipelineError {
	return &PipelineError{Stage: StageTransformation, Source: step, Message: message, Err: cause}
}

// NewValidationError tags a failure of the validation process itself,
// as opposed to invalid data, which is reported through the quality report.
func NewValidationError(source, message string, cause error) *PipelineError {
	return &PipelineError{Stage: StageValidation, Source: source, Message: message, Err: cause}
}

// NewLoadingError tags a failure in the loading stage.
func NewLoadingError(destination, message string, cause error) *PipelineError {
	return &PipelineError{Stage: StageLoading, Source: destination, Message: message, Err: cause}
}

// NewConfigurationError tags invalid or missing configuration.
func NewConfigurationError(key, message string, cause error) *PipelineError {
	return &PipelineError{Stage: StageConfiguration, Source: key, Message: message, Err: cause}
}

// DataQualityError reports a computed quality score below the configured
// threshold. It wraps a PipelineError so stage matching still works.
type DataQualityError struct {
	Score     float64
	Threshold float64
}

// Error implements the error interface.
func (e *DataQualityError) Error() string {
	return fmt.Sprintf("[%s] quality score %.1f%% is below threshold %.1f%%",
		StageDataQuality, e.Score, e.Threshold)
}

// StageOf returns the stage tag of err, or an empty stage when err is
// not a pipeline error.
func StageOf(err error) Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	var qe *DataQualityError
	if errors.As(err, &qe) {
		return StageDataQuality
	}
	return ""
}

// IsStage reports whether err carries the given stage tag.
func IsStage(err error, stage Stage) bool {
	return StageOf(err) == stage
}
