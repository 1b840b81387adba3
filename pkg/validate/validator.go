// Package validate checks templates and rendered output against the
// structural, content, variable, and completeness rules, and scores template
// quality on a 0-100 scale.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-docgen/pkg/expr"
	"github.com/goliatone/go-docgen/pkg/template"
)

// maxPlaceholders is the excess-variable heuristic threshold.
const maxPlaceholders = 100

// minOutputLength is the short-output warning threshold in characters.
const minOutputLength = 100

// Option customises a Validator.
type Option func(*Validator)

// WithAllowedFormats overrides the output format allow-list.
func WithAllowedFormats(formats ...template.Format) Option {
	return func(v *Validator) {
		if len(formats) > 0 {
			v.formats = formats
		}
	}
}

// WithClock overrides the timestamp source stamped on validation results.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// Validator runs pure checks over a template and its rendered output. Safe
// for concurrent use.
type Validator struct {
	formats []template.Format
	now     func() time.Time
}

// New constructs a Validator with the canonical format allow-list.
func New(options ...Option) *Validator {
	v := &Validator{
		formats: template.Formats(),
		now:     time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

func (v *Validator) result(rule string, passed bool, severity template.Severity, message string) template.ValidationResult {
	return template.ValidationResult{
		Rule:      rule,
		Passed:    passed,
		Message:   message,
		Severity:  severity,
		Timestamp: v.now(),
	}
}

func (v *Validator) failure(rule string, severity template.Severity, message string) template.ValidationResult {
	return v.result(rule, false, severity, message)
}

// ValidateStructure checks that the template carries the metadata, config,
// and content a loadable template requires. Every finding is an error.
func (v *Validator) ValidateStructure(t template.Template) []template.ValidationResult {
	var results []template.ValidationResult

	if strings.TrimSpace(t.Metadata.ID) == "" {
		results = append(results, v.failure("structure-metadata-id", template.SeverityError, "metadata.id is required"))
	}
	if strings.TrimSpace(t.Content) == "" {
		results = append(results, v.failure("structure-content", template.SeverityError, "content is required"))
	}
	if t.Config.Type == "" {
		results = append(results, v.failure("structure-config-type", template.SeverityError, "config.type is required"))
	}
	if strings.TrimSpace(t.Config.Language) == "" {
		results = append(results, v.failure("structure-config-language", template.SeverityError, "config.language is required"))
	}
	if t.Config.Format == "" {
		results = append(results, v.failure("structure-config-format", template.SeverityError, "config.format is required"))
	} else if !v.formatAllowed(t.Config.Format) {
		results = append(results, v.failure("structure-config-format", template.SeverityError,
			fmt.Sprintf("config.format %q is not in the allowed set", t.Config.Format)))
	}

	if len(results) == 0 {
		results = append(results, v.result("structure", true, template.SeverityInfo, "structure is valid"))
	}
	return results
}

func (v *Validator) formatAllowed(format template.Format) bool {
	for _, allowed := range v.formats {
		if format == allowed {
			return true
		}
	}
	return false
}

// ValidateContent checks length bounds and style hygiene. Every finding is a
// warning.
func (v *Validator) ValidateContent(t template.Template) []template.ValidationResult {
	var results []template.ValidationResult
	content := t.Content

	length := len(content)
	if min := t.Config.MinSectionLength; min > 0 && length < min {
		results = append(results, v.failure("content-length", template.SeverityWarning,
			fmt.Sprintf("content length %d is below the minimum %d", length, min)))
	}
	if max := t.Config.MaxSectionLength; max > 0 && length > max {
		results = append(results, v.failure("content-length", template.SeverityWarning,
			fmt.Sprintf("content length %d exceeds the maximum %d", length, max)))
	}

	if count := strings.Count(content, "{{"); count > maxPlaceholders {
		results = append(results, v.failure("content-placeholder-count", template.SeverityWarning,
			fmt.Sprintf("%d placeholders exceed the %d heuristic limit", count, maxPlaceholders)))
	}

	crlf := strings.Count(content, "\r\n")
	lf := strings.Count(content, "\n") - crlf
	if crlf > 0 && lf > 0 {
		results = append(results, v.failure("content-line-endings", template.SeverityWarning,
			"content mixes CRLF and LF line endings"))
	}

	if hasTrailingSpace(content) {
		results = append(results, v.failure("content-trailing-space", template.SeverityWarning,
			"content has lines with trailing whitespace"))
	}
	if strings.Contains(content, "\t") {
		results = append(results, v.failure("content-tabs", template.SeverityWarning,
			"content uses tab characters"))
	}

	if len(results) == 0 {
		results = append(results, v.result("content", true, template.SeverityInfo, "content is clean"))
	}
	return results
}

func hasTrailingSpace(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != strings.TrimRight(line, " \t") {
			return true
		}
	}
	return false
}

// ValidateVariables checks declared variable definitions, the supplied
// binding values against their declared bounds, and the author-declared
// config rules.
func (v *Validator) ValidateVariables(t template.Template, bindings template.Bindings) []template.ValidationResult {
	var results []template.ValidationResult

	declared := make(map[string]template.VariableDefinition, len(t.Config.Variables))
	for i, def := range t.Config.Variables {
		if strings.TrimSpace(def.Name) == "" {
			results = append(results, v.failure("variable-definition", template.SeverityError,
				fmt.Sprintf("variable definition %d has no name", i)))
			continue
		}
		declared[def.Name] = def
		if def.Type == "" {
			results = append(results, v.failure("variable-definition", template.SeverityError,
				fmt.Sprintf("variable %q has no type", def.Name)))
		}
		if def.Required == nil {
			results = append(results, v.failure("variable-definition", template.SeverityError,
				fmt.Sprintf("variable %q has no required flag", def.Name)))
		}
		if def.Validation != nil {
			if value, bound := bindings[def.Name]; bound {
				results = append(results, v.checkBounds(def, value)...)
			}
		}
	}

	for _, name := range bindings.Names() {
		value := bindings[name]
		if value.IsEmpty() {
			results = append(results, v.failure("variable-value", template.SeverityWarning,
				fmt.Sprintf("binding %q is empty", name)))
		}
		def, isDeclared := declared[name]
		if isDeclared && def.Type == template.VariableNumber && value.IsNaN() {
			results = append(results, v.failure("variable-value", template.SeverityError,
				fmt.Sprintf("numeric binding %q is NaN", name)))
		}
	}

	results = append(results, v.applyRules(t, bindings)...)

	if len(results) == 0 {
		results = append(results, v.result("variables", true, template.SeverityInfo, "variables are valid"))
	}
	return results
}

// checkBounds validates a bound value against its declared constraints.
// Min/Max apply to the numeric value for numbers and to the length for
// strings; Pattern is a regular expression strings must match.
func (v *Validator) checkBounds(def template.VariableDefinition, value template.Value) []template.ValidationResult {
	bounds := def.Validation
	var results []template.ValidationResult

	if f, ok := value.AsNumber(); ok {
		if bounds.Min != nil && f < *bounds.Min {
			results = append(results, v.failure("variable-bounds", template.SeverityError,
				fmt.Sprintf("binding %q value %v is below the minimum %v", def.Name, f, *bounds.Min)))
		}
		if bounds.Max != nil && f > *bounds.Max {
			results = append(results, v.failure("variable-bounds", template.SeverityError,
				fmt.Sprintf("binding %q value %v exceeds the maximum %v", def.Name, f, *bounds.Max)))
		}
		return results
	}

	if s, ok := value.AsString(); ok {
		length := float64(len(s))
		if bounds.Min != nil && length < *bounds.Min {
			results = append(results, v.failure("variable-bounds", template.SeverityError,
				fmt.Sprintf("binding %q length %d is below the minimum %v", def.Name, len(s), *bounds.Min)))
		}
		if bounds.Max != nil && length > *bounds.Max {
			results = append(results, v.failure("variable-bounds", template.SeverityError,
				fmt.Sprintf("binding %q length %d exceeds the maximum %v", def.Name, len(s), *bounds.Max)))
		}
		if bounds.Pattern != "" {
			re, err := regexp.Compile(bounds.Pattern)
			if err != nil {
				results = append(results, v.failure("variable-definition", template.SeverityError,
					fmt.Sprintf("variable %q has an invalid pattern %q: %v", def.Name, bounds.Pattern, err)))
			} else if !re.MatchString(s) {
				results = append(results, v.failure("variable-bounds", template.SeverityError,
					fmt.Sprintf("binding %q does not match the pattern %q", def.Name, bounds.Pattern)))
			}
		}
	}
	return results
}

// applyRules evaluates the author-declared config rules. A rule's condition
// is a placeholder expression over the bindings; the rule fires its message
// at its declared severity when the condition fails to resolve. A rule
// without a condition fires unconditionally.
func (v *Validator) applyRules(t template.Template, bindings template.Bindings) []template.ValidationResult {
	var results []template.ValidationResult
	for _, rule := range t.Config.Rules {
		severity := rule.Severity
		if severity == "" {
			severity = template.SeverityWarning
		}
		if rule.Condition != "" && conditionResolves(rule.Condition, bindings) {
			continue
		}
		message := rule.Message
		if message == "" {
			message = fmt.Sprintf("rule %q failed", rule.Type)
		}
		results = append(results, v.failure("config-rule", severity, message))
	}
	return results
}

func conditionResolves(condition string, bindings template.Bindings) bool {
	eval := expr.New(expr.WithMode(expr.Strict), expr.WithEscaping(false))
	_, err := eval.Replace("{{"+condition+"}}", bindings)
	return err == nil
}

// ValidateOutput checks the rendered text. An unresolved {{...}} placeholder
// is always an error regardless of strict mode: a successful render must
// contain zero live placeholders.
func (v *Validator) ValidateOutput(t template.Template, rendered string) []template.ValidationResult {
	var results []template.ValidationResult

	if strings.TrimSpace(rendered) == "" {
		results = append(results, v.failure("output-empty", template.SeverityError, "rendered output is empty"))
		return results
	}
	if len(rendered) < minOutputLength {
		results = append(results, v.failure("output-length", template.SeverityWarning,
			fmt.Sprintf("rendered output is only %d characters", len(rendered))))
	}

	eval := expr.New()
	if leftover := eval.Extract(rendered); len(leftover) > 0 {
		results = append(results, v.failure("output-unresolved-placeholder", template.SeverityError,
			(&template.OutputError{TemplateID: t.Metadata.ID, Placeholders: leftover}).Error()))
	}

	switch t.Config.Format {
	case template.FormatMarkdown:
		results = append(results, v.checkMarkdown(rendered)...)
	case template.FormatHTML:
		results = append(results, v.checkHTML(rendered)...)
	}

	if len(results) == 0 {
		results = append(results, v.result("output", true, template.SeverityInfo, "output is valid"))
	}
	return results
}

func (v *Validator) checkMarkdown(rendered string) []template.ValidationResult {
	var results []template.ValidationResult
	if strings.Count(rendered, "```")%2 != 0 {
		results = append(results, v.failure("output-markdown-fence", template.SeverityWarning,
			"unterminated code fence"))
	}
	if hasMalformedLink(rendered) {
		results = append(results, v.failure("output-markdown-link", template.SeverityWarning,
			"malformed link syntax"))
	}
	return results
}

// hasMalformedLink detects "[text](url" sequences that never close.
func hasMalformedLink(rendered string) bool {
	offset := 0
	for {
		open := strings.Index(rendered[offset:], "](")
		if open < 0 {
			return false
		}
		rest := rendered[offset+open+2:]
		closing := strings.IndexByte(rest, ')')
		newline := strings.IndexByte(rest, '\n')
		if closing < 0 || (newline >= 0 && newline < closing) {
			return true
		}
		offset += open + 2 + closing
	}
}

// CheckCompleteness verifies required sections are represented in the
// content and required variables are bound.
func (v *Validator) CheckCompleteness(t template.Template, bindings template.Bindings) []template.ValidationResult {
	var results []template.ValidationResult

	for _, section := range t.Config.Sections {
		if !section.Required {
			continue
		}
		if !strings.Contains(t.Content, section.ID) {
			results = append(results, v.failure("completeness-section", template.SeverityWarning,
				fmt.Sprintf("required section %q does not appear in the content", section.ID)))
		}
	}

	for _, def := range t.Config.Variables {
		if !def.IsRequired() {
			continue
		}
		if _, bound := bindings[def.Name]; !bound {
			results = append(results, v.failure("completeness-variable", template.SeverityError,
				(&template.VariableError{Name: def.Name, Message: "required variable is not bound"}).Error()))
		}
	}

	if len(results) == 0 {
		results = append(results, v.result("completeness", true, template.SeverityInfo, "template is complete"))
	}
	return results
}
