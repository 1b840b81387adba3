package expr

import "strings"

// EscapeContext selects the escaping rules applied to substituted values.
type EscapeContext int

const (
	// EscapeHTML entity-escapes the markup-sensitive characters & < > " '.
	// It is the context every supported output format uses.
	EscapeHTML EscapeContext = iota
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var unescaper = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Escape escapes s for the given context so substituted values cannot inject
// markup into rendered output. Unknown contexts pass the text through.
func Escape(s string, in EscapeContext) string {
	switch in {
	case EscapeHTML:
		if !strings.ContainsAny(s, `&<>"'`) {
			return s
		}
		return escaper.Replace(s)
	default:
		return s
	}
}

// Unescape reverses Escape for the given context.
func Unescape(s string, in EscapeContext) string {
	switch in {
	case EscapeHTML:
		if !strings.Contains(s, "&") {
			return s
		}
		return unescaper.Replace(s)
	default:
		return s
	}
}
