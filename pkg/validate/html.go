package validate

import (
	"strings"
	"sync"

	"github.com/goliatone/go-docgen/pkg/template"
	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = sync.OnceValue(func() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
})

func (v *Validator) checkHTML(rendered string) []template.ValidationResult {
	var results []template.ValidationResult

	if !strings.ContainsRune(rendered, '<') || !strings.ContainsRune(rendered, '>') {
		results = append(results, v.failure("output-html-tags", template.SeverityWarning,
			"output is marked as HTML but contains no tags"))
		return results
	}

	// UGC sanitization changing the document means it carried markup a
	// safe renderer would strip (script, event handlers, raw iframes).
	if sanitized := htmlPolicy().Sanitize(rendered); sanitized != rendered {
		results = append(results, v.failure("output-html-unsafe", template.SeverityWarning,
			"output contains markup outside the safe HTML subset"))
	}
	return results
}
