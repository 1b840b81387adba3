package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/goliatone/go-docgen/pkg/template"
)

func boolPtr(b bool) *bool { return &b }

func validTemplate() template.Template {
	return template.Template{
		Metadata: template.Metadata{ID: "daily-brief", Name: "Daily Brief", Version: "1.0.0"},
		Config: template.Config{
			Type:     template.TypeDaily,
			Language: "en",
			Format:   template.FormatMarkdown,
		},
		Content: "# Daily Brief\n\nSummary for {{date}}.\n",
	}
}

func countFailures(results []template.ValidationResult, rule string) int {
	n := 0
	for _, res := range results {
		if res.Rule == rule && !res.Passed {
			n++
		}
	}
	return n
}

func TestValidateStructure(t *testing.T) {
	t.Parallel()

	v := New()

	results := v.ValidateStructure(validTemplate())
	for _, res := range results {
		if !res.Passed {
			t.Fatalf("valid template failed %s: %s", res.Rule, res.Message)
		}
	}

	var empty template.Template
	results = v.ValidateStructure(empty)
	for _, rule := range []string{
		"structure-metadata-id",
		"structure-content",
		"structure-config-type",
		"structure-config-language",
		"structure-config-format",
	} {
		if countFailures(results, rule) != 1 {
			t.Errorf("empty template: missing failure for %s", rule)
		}
	}
	for _, res := range results {
		if res.Severity != template.SeverityError {
			t.Errorf("%s severity = %s, want error", res.Rule, res.Severity)
		}
	}
}

func TestValidateStructureRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	tpl := validTemplate()
	tpl.Config.Format = template.Format("pdf")

	results := New().ValidateStructure(tpl)
	if countFailures(results, "structure-config-format") != 1 {
		t.Fatal("unknown format was accepted")
	}
}

func TestValidateContent(t *testing.T) {
	t.Parallel()

	v := New()

	tests := []struct {
		name     string
		mutate   func(*template.Template)
		wantRule string
	}{
		{
			name: "below minimum length",
			mutate: func(tpl *template.Template) {
				tpl.Config.MinSectionLength = 10_000
			},
			wantRule: "content-length",
		},
		{
			name: "above maximum length",
			mutate: func(tpl *template.Template) {
				tpl.Config.MaxSectionLength = 5
			},
			wantRule: "content-length",
		},
		{
			name: "placeholder count heuristic",
			mutate: func(tpl *template.Template) {
				tpl.Content = strings.Repeat("{{v}} ", maxPlaceholders+1)
			},
			wantRule: "content-placeholder-count",
		},
		{
			name: "mixed line endings",
			mutate: func(tpl *template.Template) {
				tpl.Content = "one\r\ntwo\nthree\n"
			},
			wantRule: "content-line-endings",
		},
		{
			name: "trailing whitespace",
			mutate: func(tpl *template.Template) {
				tpl.Content = "line one  \nline two\n"
			},
			wantRule: "content-trailing-space",
		},
		{
			name: "tab characters",
			mutate: func(tpl *template.Template) {
				tpl.Content = "col1\tcol2\n"
			},
			wantRule: "content-tabs",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tpl := validTemplate()
			tc.mutate(&tpl)

			results := v.ValidateContent(tpl)
			if countFailures(results, tc.wantRule) == 0 {
				t.Fatalf("no %s failure reported", tc.wantRule)
			}
			for _, res := range results {
				if !res.Passed && res.Severity != template.SeverityWarning {
					t.Fatalf("%s severity = %s, want warning", res.Rule, res.Severity)
				}
			}
		})
	}
}

func TestValidateVariables(t *testing.T) {
	t.Parallel()

	v := New()

	tpl := validTemplate()
	tpl.Config.Variables = []template.VariableDefinition{
		{Name: "", Type: template.VariableString, Required: boolPtr(true)},
		{Name: "untyped", Required: boolPtr(false)},
		{Name: "unflagged", Type: template.VariableString},
		{Name: "ratio", Type: template.VariableNumber, Required: boolPtr(true)},
	}
	bindings := template.Bindings{
		"ratio": template.Number(math.NaN()),
		"note":  template.String(""),
	}

	results := v.ValidateVariables(tpl, bindings)
	if got := countFailures(results, "variable-definition"); got != 3 {
		t.Fatalf("variable-definition failures = %d, want 3", got)
	}
	if got := countFailures(results, "variable-value"); got != 2 {
		t.Fatalf("variable-value failures = %d, want 2 (empty + NaN)", got)
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestValidateVariableBounds(t *testing.T) {
	t.Parallel()

	v := New()

	tests := []struct {
		name     string
		def      template.VariableDefinition
		value    template.Value
		failures int
	}{
		{
			name: "number within bounds",
			def: template.VariableDefinition{
				Name: "price", Type: template.VariableNumber, Required: boolPtr(true),
				Validation: &template.Bounds{Min: floatPtr(0), Max: floatPtr(100)},
			},
			value:    template.Number(50),
			failures: 0,
		},
		{
			name: "number below minimum",
			def: template.VariableDefinition{
				Name: "price", Type: template.VariableNumber, Required: boolPtr(true),
				Validation: &template.Bounds{Min: floatPtr(0)},
			},
			value:    template.Number(-1),
			failures: 1,
		},
		{
			name: "number above maximum",
			def: template.VariableDefinition{
				Name: "price", Type: template.VariableNumber, Required: boolPtr(true),
				Validation: &template.Bounds{Max: floatPtr(100)},
			},
			value:    template.Number(101),
			failures: 1,
		},
		{
			name: "string too short",
			def: template.VariableDefinition{
				Name: "ticker", Type: template.VariableString, Required: boolPtr(true),
				Validation: &template.Bounds{Min: floatPtr(2)},
			},
			value:    template.String("A"),
			failures: 1,
		},
		{
			name: "string too long",
			def: template.VariableDefinition{
				Name: "ticker", Type: template.VariableString, Required: boolPtr(true),
				Validation: &template.Bounds{Max: floatPtr(4)},
			},
			value:    template.String("TOOLONG"),
			failures: 1,
		},
		{
			name: "string matches pattern",
			def: template.VariableDefinition{
				Name: "ticker", Type: template.VariableString, Required: boolPtr(true),
				Validation: &template.Bounds{Pattern: `^[A-Z]{1,5}$`},
			},
			value:    template.String("AAPL"),
			failures: 0,
		},
		{
			name: "string misses pattern",
			def: template.VariableDefinition{
				Name: "ticker", Type: template.VariableString, Required: boolPtr(true),
				Validation: &template.Bounds{Pattern: `^[A-Z]{1,5}$`},
			},
			value:    template.String("aapl"),
			failures: 1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tpl := validTemplate()
			tpl.Config.Variables = []template.VariableDefinition{tc.def}
			bindings := template.Bindings{tc.def.Name: tc.value}

			results := v.ValidateVariables(tpl, bindings)
			if got := countFailures(results, "variable-bounds"); got != tc.failures {
				t.Fatalf("variable-bounds failures = %d, want %d", got, tc.failures)
			}
			for _, res := range results {
				if res.Rule == "variable-bounds" && res.Severity != template.SeverityError {
					t.Fatalf("severity = %s, want error", res.Severity)
				}
			}
		})
	}
}

func TestValidateVariablesInvalidPattern(t *testing.T) {
	t.Parallel()

	tpl := validTemplate()
	tpl.Config.Variables = []template.VariableDefinition{{
		Name: "ticker", Type: template.VariableString, Required: boolPtr(true),
		Validation: &template.Bounds{Pattern: `[`},
	}}

	results := New().ValidateVariables(tpl, template.Bindings{"ticker": template.String("AAPL")})
	if countFailures(results, "variable-definition") != 1 {
		t.Fatal("unparseable pattern not reported as a definition defect")
	}
}

func TestValidateVariablesConfigRules(t *testing.T) {
	t.Parallel()

	v := New()
	tpl := validTemplate()
	tpl.Config.Rules = []template.ValidationRule{
		{Type: "requires", Condition: "ticker", Message: "a ticker must be supplied", Severity: template.SeverityError},
		{Type: "requires", Condition: "user.profile.city", Message: "a city must be supplied", Severity: template.SeverityWarning},
		{Type: "notice", Message: "review before publishing"},
	}

	results := v.ValidateVariables(tpl, template.Bindings{"ticker": template.String("AAPL")})
	if got := countFailures(results, "config-rule"); got != 2 {
		t.Fatalf("config-rule failures = %d, want 2 (unresolved condition + unconditional notice)", got)
	}

	var sawError, sawDefaultWarning bool
	for _, res := range results {
		if res.Rule != "config-rule" || res.Passed {
			continue
		}
		switch res.Message {
		case "a city must be supplied":
			if res.Severity != template.SeverityWarning {
				t.Fatalf("declared warning surfaced as %s", res.Severity)
			}
		case "review before publishing":
			sawDefaultWarning = res.Severity == template.SeverityWarning
		case "a ticker must be supplied":
			sawError = true
		}
	}
	if sawError {
		t.Fatal("rule with a resolving condition fired")
	}
	if !sawDefaultWarning {
		t.Fatal("rule without a severity did not default to warning")
	}

	// Binding every condition silences the conditional rules.
	results = v.ValidateVariables(tpl, template.Bindings{
		"ticker": template.String("AAPL"),
		"user": template.Object(map[string]template.Value{
			"profile": template.Object(map[string]template.Value{"city": template.String("NYC")}),
		}),
	})
	if got := countFailures(results, "config-rule"); got != 1 {
		t.Fatalf("config-rule failures = %d, want only the unconditional notice", got)
	}
}

func TestValidateOutputEmptyIsFatal(t *testing.T) {
	t.Parallel()

	results := New().ValidateOutput(validTemplate(), "   \n")
	if len(results) != 1 || results[0].Rule != "output-empty" || results[0].Severity != template.SeverityError {
		t.Fatalf("got %+v, want a single output-empty error", results)
	}
}

func TestValidateOutputUnresolvedPlaceholder(t *testing.T) {
	t.Parallel()

	rendered := strings.Repeat("filler text ", 12) + "still has {{missing}} here"
	results := New().ValidateOutput(validTemplate(), rendered)

	if countFailures(results, "output-unresolved-placeholder") != 1 {
		t.Fatal("unresolved placeholder in output was not reported")
	}
	for _, res := range results {
		if res.Rule == "output-unresolved-placeholder" && res.Severity != template.SeverityError {
			t.Fatalf("severity = %s, want error", res.Severity)
		}
	}
}

func TestValidateOutputShortLengthWarns(t *testing.T) {
	t.Parallel()

	results := New().ValidateOutput(validTemplate(), "short but present")
	if countFailures(results, "output-length") != 1 {
		t.Fatal("short output did not warn")
	}
}

func TestValidateOutputMarkdown(t *testing.T) {
	t.Parallel()

	v := New()
	filler := strings.Repeat("filler text ", 12)

	results := v.ValidateOutput(validTemplate(), filler+"```go\ncode without closing fence\n")
	if countFailures(results, "output-markdown-fence") != 1 {
		t.Fatal("unterminated fence not reported")
	}

	results = v.ValidateOutput(validTemplate(), filler+"[broken](http://example.com\nnext line")
	if countFailures(results, "output-markdown-link") != 1 {
		t.Fatal("malformed link not reported")
	}

	results = v.ValidateOutput(validTemplate(), filler+"```go\nok\n```\n[fine](http://example.com) done")
	for _, res := range results {
		if !res.Passed {
			t.Fatalf("clean markdown flagged: %s: %s", res.Rule, res.Message)
		}
	}
}

func TestValidateOutputHTML(t *testing.T) {
	t.Parallel()

	v := New()
	tpl := validTemplate()
	tpl.Config.Format = template.FormatHTML
	filler := strings.Repeat("filler text ", 12)

	results := v.ValidateOutput(tpl, filler+"no markup at all")
	if countFailures(results, "output-html-tags") != 1 {
		t.Fatal("tag-free html output did not warn")
	}

	results = v.ValidateOutput(tpl, filler+`<p>ok</p><script>alert(1)</script>`)
	if countFailures(results, "output-html-unsafe") != 1 {
		t.Fatal("script content not reported as unsafe")
	}

	results = v.ValidateOutput(tpl, filler+"<p>all <em>good</em></p>")
	for _, res := range results {
		if !res.Passed {
			t.Fatalf("clean html flagged: %s: %s", res.Rule, res.Message)
		}
	}
}

func TestCheckCompleteness(t *testing.T) {
	t.Parallel()

	v := New()
	tpl := validTemplate()
	tpl.Config.Sections = []template.Section{
		{ID: "summary", Required: true},
		{ID: "appendix", Required: false},
	}
	tpl.Config.Variables = []template.VariableDefinition{
		{Name: "date", Type: template.VariableDate, Required: boolPtr(true)},
		{Name: "note", Type: template.VariableString, Required: boolPtr(false)},
	}
	tpl.Content = "# summary\n\n{{date}}\n"

	results := v.CheckCompleteness(tpl, template.Bindings{"date": template.String("2026-01-01")})
	for _, res := range results {
		if !res.Passed {
			t.Fatalf("complete template flagged: %s: %s", res.Rule, res.Message)
		}
	}

	tpl.Content = "# something else\n"
	results = v.CheckCompleteness(tpl, template.Bindings{})
	if countFailures(results, "completeness-section") != 1 {
		t.Fatal("missing required section not reported")
	}
	if countFailures(results, "completeness-variable") != 1 {
		t.Fatal("unbound required variable not reported")
	}
	for _, res := range results {
		if res.Rule == "completeness-section" && res.Severity != template.SeverityWarning {
			t.Fatalf("section severity = %s, want warning", res.Severity)
		}
		if res.Rule == "completeness-variable" && res.Severity != template.SeverityError {
			t.Fatalf("variable severity = %s, want error", res.Severity)
		}
	}
}
