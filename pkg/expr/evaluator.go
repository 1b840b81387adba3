// Package expr implements the placeholder expression language used in
// template content: {{name}}, {{name|formatter}}, {{name|default:literal}},
// {{a.b.c}}, and {{items[0]}}. Placeholders are parsed by a small scanner
// rather than regex chains so the grammar stays verifiable.
package expr

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-docgen/pkg/template"
)

// Mode selects how unresolved expressions are handled during substitution.
type Mode int

const (
	// Lenient leaves the original {{...}} text in place when an
	// expression fails to resolve, so downstream output validation can
	// detect it. Unresolved placeholders are never silently dropped.
	Lenient Mode = iota
	// Strict fails the whole substitution on the first unresolved
	// expression.
	Strict
)

// Option customises an Evaluator.
type Option func(*Evaluator)

// WithMode selects strict or lenient resolution.
func WithMode(mode Mode) Option {
	return func(e *Evaluator) { e.mode = mode }
}

// WithEscaping toggles HTML entity escaping of substituted values. Enabled
// by default.
func WithEscaping(enabled bool) Option {
	return func(e *Evaluator) { e.escape = enabled }
}

// WithClock overrides the timestamp source used for validation results.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator substitutes variable bindings into template text. The zero
// value is not usable; construct with New.
type Evaluator struct {
	mode   Mode
	escape bool
	now    func() time.Time
}

// New constructs an Evaluator. Defaults: lenient mode, escaping on.
func New(options ...Option) *Evaluator {
	e := &Evaluator{escape: true, now: time.Now}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Replace substitutes every resolvable placeholder in text. In lenient mode
// unresolved placeholders survive verbatim; in strict mode the first failure
// returns a VariableError.
func (e *Evaluator) Replace(text string, bindings template.Bindings) (string, error) {
	spans := scan(text)
	if len(spans) == 0 {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))
	cursor := 0
	for _, sp := range spans {
		out.WriteString(text[cursor:sp.start])
		cursor = sp.end

		rendered, err := e.renderSpan(sp, bindings)
		if err != nil {
			if e.mode == Strict {
				return "", err
			}
			out.WriteString(text[sp.start:sp.end])
			continue
		}
		out.WriteString(rendered)
	}
	out.WriteString(text[cursor:])
	return out.String(), nil
}

func (e *Evaluator) renderSpan(sp span, bindings template.Bindings) (string, error) {
	if sp.err != nil {
		return "", &template.VariableError{Expression: sp.expr.raw, Message: sp.err.Error()}
	}

	value, resolveErr := resolve(sp.expr.path, bindings)
	if resolveErr != nil {
		if sp.expr.pipe == pipeDefault {
			return e.escaped(sp.expr.fallback), nil
		}
		return "", &template.VariableError{Expression: sp.expr.raw, Message: resolveErr.Error()}
	}

	if sp.expr.pipe == pipeFormatter {
		formatted, err := Format(value, sp.expr.formatter)
		if err != nil {
			return "", &template.VariableError{Expression: sp.expr.raw, Message: err.Error()}
		}
		return e.escaped(formatted), nil
	}

	return e.stringify(value), nil
}

// stringify renders a resolved value, escaping each array element before
// joining so entity escaping applies element-wise.
func (e *Evaluator) stringify(value template.Value) string {
	if items, ok := value.AsArray(); ok && e.escape {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = Escape(item.String(), EscapeHTML)
		}
		return strings.Join(parts, ", ")
	}
	return e.escaped(value.String())
}

func (e *Evaluator) escaped(s string) string {
	if !e.escape {
		return s
	}
	return Escape(s, EscapeHTML)
}

// Extract returns the de-duplicated raw expressions found in text, in order
// of first appearance, including formatter and default suffixes.
func (e *Evaluator) Extract(text string) []string {
	spans := scan(text)
	if len(spans) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(spans))
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		if _, dup := seen[sp.expr.raw]; dup {
			continue
		}
		seen[sp.expr.raw] = struct{}{}
		out = append(out, sp.expr.raw)
	}
	return out
}

// Validate cross-references the expressions in text against the supplied
// bindings: every expression that fails to resolve is an error, and every
// binding never referenced by any expression is an unused-variable warning.
func (e *Evaluator) Validate(text string, bindings template.Bindings) []template.ValidationResult {
	var results []template.ValidationResult
	now := e.now()

	referenced := make(map[string]struct{})
	seen := make(map[string]struct{})
	for _, sp := range scan(text) {
		if root := sp.expr.root(); root != "" {
			referenced[root] = struct{}{}
		}
		if _, dup := seen[sp.expr.raw]; dup {
			continue
		}
		seen[sp.expr.raw] = struct{}{}

		if _, err := e.renderSpan(sp, bindings); err != nil {
			results = append(results, template.ValidationResult{
				Rule:      "expression-resolution",
				Passed:    false,
				Message:   err.Error(),
				Severity:  template.SeverityError,
				Timestamp: now,
			})
			continue
		}
		results = append(results, template.ValidationResult{
			Rule:      "expression-resolution",
			Passed:    true,
			Message:   fmt.Sprintf("expression %q resolves", sp.expr.raw),
			Severity:  template.SeverityInfo,
			Timestamp: now,
		})
	}

	for _, name := range bindings.Names() {
		if _, used := referenced[name]; used {
			continue
		}
		results = append(results, template.ValidationResult{
			Rule:      "unused-variable",
			Passed:    false,
			Message:   fmt.Sprintf("binding %q is never referenced", name),
			Severity:  template.SeverityWarning,
			Timestamp: now,
		})
	}
	return results
}

// resolve walks the bindings along the parsed path. Any missing intermediate
// key or out-of-bounds index is a resolution failure. A binding that is
// present but holds an empty string still resolves; only absence fails.
func resolve(path []step, bindings template.Bindings) (template.Value, error) {
	if len(path) == 0 || path[0].isIdx {
		return template.Value{}, fmt.Errorf("expr: path must start with a variable name")
	}

	current, ok := bindings[path[0].key]
	if !ok {
		return template.Value{}, fmt.Errorf("expr: variable %q is not bound", path[0].key)
	}

	for _, s := range path[1:] {
		if s.isIdx {
			items, isArr := current.AsArray()
			if !isArr {
				return template.Value{}, fmt.Errorf("expr: cannot index into %s value", current.Kind())
			}
			if s.index >= len(items) {
				return template.Value{}, fmt.Errorf("expr: index %d out of bounds (len %d)", s.index, len(items))
			}
			current = items[s.index]
			continue
		}
		fields, isObj := current.AsObject()
		if !isObj {
			return template.Value{}, fmt.Errorf("expr: cannot access %q on %s value", s.key, current.Kind())
		}
		next, found := fields[s.key]
		if !found {
			return template.Value{}, fmt.Errorf("expr: key %q not found", s.key)
		}
		current = next
	}
	return current, nil
}
