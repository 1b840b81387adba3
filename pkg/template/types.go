package template

import "time"

// Type categorises what kind of document a template produces.
type Type string

const (
	TypeDaily      Type = "daily"
	TypeInvestment Type = "investment"
	TypeBrief      Type = "brief"
	TypeCustom     Type = "custom"
)

// Format identifies the output format a template targets.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPlain    Format = "plain"
	FormatRich     Format = "rich"
)

// Formats returns the canonical output format allow-list.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatHTML, FormatPlain, FormatRich}
}

// Severity ranks validation findings. Only SeverityError findings block a
// generation in strict mode.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Metadata identifies and versions a template. ID is the immutable unique
// key; Version and UpdatedAt change on edit.
type Metadata struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string    `json:"author,omitempty" yaml:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Section describes a logically named region of the intended content. It is
// a structural unit used for completeness checks, not separately stored text.
type Section struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Required  bool   `json:"required" yaml:"required"`
	MinLength int    `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Example   string `json:"example,omitempty" yaml:"example,omitempty"`
	Guidance  string `json:"guidance,omitempty" yaml:"guidance,omitempty"`
}

// VariableType enumerates the value kinds a variable definition may declare.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableNumber  VariableType = "number"
	VariableBoolean VariableType = "boolean"
	VariableDate    VariableType = "date"
	VariableArray   VariableType = "array"
	VariableObject  VariableType = "object"
)

// Bounds constrains the values a variable accepts. Min/Max apply to numbers
// and to string lengths; Pattern is a regular expression for strings.
type Bounds struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// VariableDefinition declares a variable a template expects at generation
// time.
type VariableDefinition struct {
	Name        string       `json:"name" yaml:"name"`
	Type        VariableType `json:"type" yaml:"type"`
	Required    *bool        `json:"required" yaml:"required"`
	Default     *Value       `json:"default,omitempty" yaml:"default,omitempty"`
	Source      string       `json:"source,omitempty" yaml:"source,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Validation  *Bounds      `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// IsRequired reports whether the definition marks the variable required. A
// nil Required flag is itself a definition defect the validator reports.
func (d VariableDefinition) IsRequired() bool {
	return d.Required != nil && *d.Required
}

// ValidationRule is an author-declared rule carried on the template config.
type ValidationRule struct {
	Type      string   `json:"type" yaml:"type"`
	Condition string   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Message   string   `json:"message" yaml:"message"`
	Severity  Severity `json:"severity" yaml:"severity"`
}

// Config declares a template's type, language, output format, sections,
// variables, and author-supplied validation rules.
type Config struct {
	Type             Type                 `json:"type" yaml:"type"`
	Language         string               `json:"language" yaml:"language"`
	Format           Format               `json:"format" yaml:"format"`
	Sections         []Section            `json:"sections,omitempty" yaml:"sections,omitempty"`
	Variables        []VariableDefinition `json:"variables,omitempty" yaml:"variables,omitempty"`
	Rules            []ValidationRule     `json:"rules,omitempty" yaml:"rules,omitempty"`
	MinSectionLength int                  `json:"minSectionLength,omitempty" yaml:"minSectionLength,omitempty"`
	MaxSectionLength int                  `json:"maxSectionLength,omitempty" yaml:"maxSectionLength,omitempty"`
}

// Template is a named, versioned document of text with embedded placeholders
// plus the metadata needed to validate it. The loader that persisted a
// template owns the authoritative instance; engines and caches hold copies.
type Template struct {
	Metadata          Metadata           `json:"metadata" yaml:"metadata"`
	Config            Config             `json:"config" yaml:"config"`
	Content           string             `json:"content" yaml:"content"`
	Variables         Bindings           `json:"variables,omitempty" yaml:"variables,omitempty"`
	ValidationResults []ValidationResult `json:"validationResults,omitempty" yaml:"validationResults,omitempty"`
}

// ValidationResult records the outcome of a single validation rule.
type ValidationResult struct {
	Rule      string    `json:"rule" yaml:"rule"`
	Passed    bool      `json:"passed" yaml:"passed"`
	Message   string    `json:"message" yaml:"message"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Clone returns a deep copy so cached instances never alias loader-owned
// state.
func (t Template) Clone() Template {
	out := t
	if len(t.Metadata.Tags) > 0 {
		out.Metadata.Tags = append([]string(nil), t.Metadata.Tags...)
	}
	if len(t.Config.Sections) > 0 {
		out.Config.Sections = append([]Section(nil), t.Config.Sections...)
	}
	if len(t.Config.Variables) > 0 {
		out.Config.Variables = make([]VariableDefinition, len(t.Config.Variables))
		for i, def := range t.Config.Variables {
			copied := def
			if def.Required != nil {
				required := *def.Required
				copied.Required = &required
			}
			if def.Default != nil {
				value := def.Default.Clone()
				copied.Default = &value
			}
			if def.Validation != nil {
				bounds := *def.Validation
				copied.Validation = &bounds
			}
			out.Config.Variables[i] = copied
		}
	}
	if len(t.Config.Rules) > 0 {
		out.Config.Rules = append([]ValidationRule(nil), t.Config.Rules...)
	}
	if len(t.Variables) > 0 {
		out.Variables = t.Variables.Clone()
	}
	if len(t.ValidationResults) > 0 {
		out.ValidationResults = append([]ValidationResult(nil), t.ValidationResults...)
	}
	return out
}

// Filter narrows template listings by config attributes. Zero fields match
// everything.
type Filter struct {
	Type       Type
	Language   string
	Format     Format
	Tags       []string
	MinVersion string
	MaxVersion string
}

// Matches reports whether the template satisfies every populated filter
// field. Version comparisons are lexicographic over dotted segments.
func (f Filter) Matches(t Template) bool {
	if f.Type != "" && t.Config.Type != f.Type {
		return false
	}
	if f.Language != "" && t.Config.Language != f.Language {
		return false
	}
	if f.Format != "" && t.Config.Format != f.Format {
		return false
	}
	for _, want := range f.Tags {
		if !hasTag(t.Metadata.Tags, want) {
			return false
		}
	}
	if f.MinVersion != "" && CompareVersions(t.Metadata.Version, f.MinVersion) < 0 {
		return false
	}
	if f.MaxVersion != "" && CompareVersions(t.Metadata.Version, f.MaxVersion) > 0 {
		return false
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
