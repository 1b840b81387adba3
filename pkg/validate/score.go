package validate

import "github.com/goliatone/go-docgen/pkg/template"

// Quality is the coarse tier derived from a template's quality score.
type Quality string

const (
	QualityHigh   Quality = "HIGH"
	QualityMedium Quality = "MEDIUM"
	QualityLow    Quality = "LOW"
	QualityFailed Quality = "FAILED"
)

// Score deductions per finding category.
const (
	structurePenalty    = 10
	contentPenalty      = 5
	completenessPenalty = 15
)

// CalculateQualityScore scores a template from 100 down: 10 per structural
// error, 5 per content issue of any severity, 15 per completeness issue of
// any severity, clamped to [0,100]. The template's own sample variables act
// as the bindings for the completeness pass.
func (v *Validator) CalculateQualityScore(t template.Template) int {
	score := 100

	for _, res := range v.ValidateStructure(t) {
		if !res.Passed && res.Severity == template.SeverityError {
			score -= structurePenalty
		}
	}
	for _, res := range v.ValidateContent(t) {
		if !res.Passed {
			score -= contentPenalty
		}
	}
	for _, res := range v.CheckCompleteness(t, t.Variables) {
		if !res.Passed {
			score -= completenessPenalty
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Tier maps a quality score to its coarse tier.
func Tier(score int) Quality {
	switch {
	case score >= 80:
		return QualityHigh
	case score >= 60:
		return QualityMedium
	case score >= 40:
		return QualityLow
	default:
		return QualityFailed
	}
}
