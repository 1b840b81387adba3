package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-docgen/pkg/template"
)

// datePatterns maps the wire-contract date patterns to Go layouts. Only this
// fixed set is accepted.
var datePatterns = map[string]string{
	"yyyy-mm-dd": "2006-01-02",
	"mm/dd/yyyy": "01/02/2006",
	"dd/mm/yyyy": "02/01/2006",
}

// Format applies a named formatter to a resolved value. Unknown formatters
// and kind mismatches are errors, which the substitution pipeline treats as
// resolution failures.
func Format(value template.Value, name string) (string, error) {
	name = strings.TrimSpace(name)

	if pattern, ok := strings.CutPrefix(name, "date:"); ok {
		layout, known := datePatterns[strings.TrimSpace(pattern)]
		if !known {
			return "", fmt.Errorf("expr: unknown date pattern %q", pattern)
		}
		return formatDate(value, layout)
	}

	switch name {
	case "uppercase":
		return strings.ToUpper(value.String()), nil
	case "lowercase":
		return strings.ToLower(value.String()), nil
	case "capitalize":
		return capitalize(value.String()), nil
	case "date":
		return formatDate(value, "2006-01-02")
	case "time":
		return formatDate(value, "15:04:05")
	case "datetime":
		return formatDate(value, "2006-01-02 15:04:05")
	case "number":
		f, err := numeric(value)
		if err != nil {
			return "", err
		}
		return groupThousands(strconv.FormatFloat(f, 'f', -1, 64)), nil
	case "currency":
		f, err := numeric(value)
		if err != nil {
			return "", err
		}
		return "¥" + strconv.FormatFloat(f, 'f', 2, 64), nil
	case "percentage":
		f, err := numeric(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f*100, 'f', 2, 64) + "%", nil
	default:
		return "", fmt.Errorf("expr: unknown formatter %q", name)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}

// formatDate accepts date values directly and strings in RFC 3339 form.
func formatDate(value template.Value, layout string) (string, error) {
	if ts, ok := value.AsDate(); ok {
		return ts.Format(layout), nil
	}
	if raw, ok := value.AsString(); ok {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return "", fmt.Errorf("expr: %q is not a date", raw)
		}
		return ts.Format(layout), nil
	}
	return "", fmt.Errorf("expr: cannot format %s value as date", value.Kind())
}

func numeric(value template.Value) (float64, error) {
	if f, ok := value.AsNumber(); ok {
		return f, nil
	}
	if raw, ok := value.AsString(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("expr: cannot format %s value as number", value.Kind())
}

// groupThousands inserts comma separators into the integer part of a
// formatted decimal.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		if hasFrac {
			return sign + intPart + "." + fracPart
		}
		return sign + intPart
	}

	var out strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		out.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		return sign + out.String() + "." + fracPart
	}
	return sign + out.String()
}
