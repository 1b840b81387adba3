package template

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a persisted template document. JSON is tried first, then
// YAML, mirroring how author-supplied documents arrive in either form. Date
// fields serialise as ISO-8601 strings and are parsed back to time values.
func Parse(data []byte, source string) (Template, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Template{}, fmt.Errorf("template: document %s is empty", source)
	}

	var tmpl Template
	if err := json.Unmarshal(data, &tmpl); err == nil {
		return tmpl, nil
	}
	if err := yaml.Unmarshal(data, &tmpl); err == nil {
		return tmpl, nil
	}
	return Template{}, fmt.Errorf("template: parse %s: invalid JSON or YAML", source)
}

// Encode serialises a template to the persisted JSON format.
func Encode(t Template) ([]byte, error) {
	encoded, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("template: encode %q: %w", t.Metadata.ID, err)
	}
	return encoded, nil
}

// Size reports the serialized byte length of a template, the unit the
// bounded cache budgets in.
func Size(t Template) int {
	encoded, err := json.Marshal(t)
	if err != nil {
		return len(t.Content)
	}
	return len(encoded)
}
