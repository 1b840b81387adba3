package engine

import (
	"time"

	"github.com/goliatone/go-docgen/pkg/template"
	"github.com/goliatone/go-docgen/pkg/validate"
)

// state tracks where a generate call is in its pipeline, mainly for log
// correlation.
type state string

const (
	stateLoading             state = "LOADING"
	stateValidatingStructure state = "VALIDATING_STRUCTURE"
	stateValidatingVariables state = "VALIDATING_VARIABLES"
	stateCompletenessCheck   state = "COMPLETENESS_CHECK"
	stateCompiling           state = "COMPILING"
	stateValidatingOutput    state = "VALIDATING_OUTPUT"
	stateScoring             state = "SCORING"
	stateDone                state = "DONE"
	stateFailed              state = "FAILED"
)

// Result is returned to the caller of Generate. A failed result never
// carries partial output: Output is populated only when the whole pipeline
// succeeded.
type Result struct {
	// GenerationID is a ULID correlating this result with engine logs.
	GenerationID string `json:"generationId"`

	Success           bool                        `json:"success"`
	Template          template.Template           `json:"template"`
	Output            string                      `json:"output,omitempty"`
	Errors            []string                    `json:"errors"`
	Warnings          []string                    `json:"warnings"`
	ValidationResults []template.ValidationResult `json:"validationResults"`
	GenerationTime    time.Duration               `json:"-"`
	GenerationTimeMs  float64                     `json:"generationTimeMs"`
	Score             int                         `json:"score"`
	Quality           validate.Quality            `json:"quality"`
}

// collect folds a batch of validation results into the errors/warnings
// buckets and reports whether any error-severity finding arrived.
func (r *Result) collect(results []template.ValidationResult) bool {
	sawError := false
	for _, res := range results {
		r.ValidationResults = append(r.ValidationResults, res)
		if res.Passed {
			continue
		}
		switch res.Severity {
		case template.SeverityError:
			r.Errors = append(r.Errors, res.Message)
			sawError = true
		case template.SeverityWarning:
			r.Warnings = append(r.Warnings, res.Message)
		}
	}
	return sawError
}

func (r *Result) fail(message string) {
	r.Errors = append(r.Errors, message)
	r.Success = false
}

func (r *Result) finish(start time.Time) {
	r.GenerationTime = time.Since(start)
	r.GenerationTimeMs = float64(r.GenerationTime) / float64(time.Millisecond)
}
