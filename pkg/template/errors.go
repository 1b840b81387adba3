package template

import "fmt"

// StructuralError reports a template missing required metadata, config, or
// content. It blocks load and register.
type StructuralError struct {
	TemplateID string
	Field      string
	Message    string
}

func (e *StructuralError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("template %q: structural error in %s: %s", e.TemplateID, e.Field, e.Message)
	}
	return fmt.Sprintf("template %q: structural error: %s", e.TemplateID, e.Message)
}

// ContentError reports length, format, or style issues. Warnings by default;
// strict mode promotes them for non-output checks.
type ContentError struct {
	TemplateID string
	Message    string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("template %q: content error: %s", e.TemplateID, e.Message)
}

// VariableError reports a required variable missing from the bindings or, in
// strict mode, an expression that failed to resolve.
type VariableError struct {
	Name       string
	Expression string
	Message    string
}

func (e *VariableError) Error() string {
	switch {
	case e.Expression != "":
		return fmt.Sprintf("variable error: expression %q: %s", e.Expression, e.Message)
	case e.Name != "":
		return fmt.Sprintf("variable error: %q: %s", e.Name, e.Message)
	default:
		return "variable error: " + e.Message
	}
}

// OutputError reports an unresolved placeholder surviving compilation. It is
// always fatal, independent of strict mode.
type OutputError struct {
	TemplateID   string
	Placeholders []string
}

func (e *OutputError) Error() string {
	if len(e.Placeholders) == 0 {
		return fmt.Sprintf("template %q: output error: rendered output is invalid", e.TemplateID)
	}
	return fmt.Sprintf("template %q: output error: unresolved placeholders: %v", e.TemplateID, e.Placeholders)
}

// LoaderError reports that no registered loader could supply a template id.
type LoaderError struct {
	TemplateID string
	Err        error
}

func (e *LoaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template %q: loader error: %v", e.TemplateID, e.Err)
	}
	return fmt.Sprintf("template %q: not found in any registered loader", e.TemplateID)
}

func (e *LoaderError) Unwrap() error { return e.Err }
