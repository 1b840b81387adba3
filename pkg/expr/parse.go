package expr

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// pipeKind discriminates the optional pipe operation on a placeholder.
type pipeKind int

const (
	pipeNone pipeKind = iota
	pipeFormatter
	pipeDefault
)

// step is one segment of a resolution path: a map key or an array index.
type step struct {
	key   string
	index int
	isIdx bool
}

// placeholder is the parsed form of one {{ ... }} expression.
type placeholder struct {
	raw       string // trimmed inner expression, including any pipe suffix
	path      []step
	pipe      pipeKind
	formatter string // pipeFormatter
	fallback  string // pipeDefault literal
}

// span locates one placeholder inside the template text.
type span struct {
	start int // offset of "{{"
	end   int // offset just past "}}"
	expr  placeholder
	err   error // parse failure for this expression
}

// scan walks the template text and returns every {{ ... }} span in order.
// An opening delimiter without a closing one is treated as literal text.
func scan(text string) []span {
	var spans []span
	offset := 0
	for {
		rel := strings.Index(text[offset:], openDelim)
		if rel < 0 {
			return spans
		}
		start := offset + rel
		closeRel := strings.Index(text[start+len(openDelim):], closeDelim)
		if closeRel < 0 {
			return spans
		}
		inner := text[start+len(openDelim) : start+len(openDelim)+closeRel]
		end := start + len(openDelim) + closeRel + len(closeDelim)

		expr, err := parsePlaceholder(inner)
		spans = append(spans, span{start: start, end: end, expr: expr, err: err})
		offset = end
	}
}

// parsePlaceholder splits the inner expression into a resolution path and an
// optional formatter or default pipe.
func parsePlaceholder(inner string) (placeholder, error) {
	trimmed := strings.TrimSpace(inner)
	out := placeholder{raw: trimmed}
	if trimmed == "" {
		return out, fmt.Errorf("expr: empty placeholder")
	}

	pathPart := trimmed
	if idx := strings.Index(trimmed, "|"); idx >= 0 {
		pathPart = strings.TrimSpace(trimmed[:idx])
		op := strings.TrimSpace(trimmed[idx+1:])
		switch {
		case op == "":
			return out, fmt.Errorf("expr: %q: empty pipe operation", trimmed)
		case strings.HasPrefix(op, "default:"):
			out.pipe = pipeDefault
			out.fallback = op[len("default:"):]
		default:
			out.pipe = pipeFormatter
			out.formatter = op
		}
	}

	path, err := parsePath(pathPart)
	if err != nil {
		return out, err
	}
	out.path = path
	return out, nil
}

// parsePath tokenizes a dotted path with optional bracket indexes, e.g.
// "market.indices[0].name".
func parsePath(raw string) ([]step, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("expr: empty variable path")
	}

	var steps []step
	i := 0
	expectKey := true
	for i < len(raw) {
		switch raw[i] {
		case '.':
			if expectKey {
				return nil, fmt.Errorf("expr: %q: unexpected '.'", raw)
			}
			expectKey = true
			i++
		case '[':
			if expectKey {
				return nil, fmt.Errorf("expr: %q: index without a preceding name", raw)
			}
			closing := strings.IndexByte(raw[i:], ']')
			if closing < 0 {
				return nil, fmt.Errorf("expr: %q: unterminated index", raw)
			}
			digits := raw[i+1 : i+closing]
			index, err := strconv.Atoi(strings.TrimSpace(digits))
			if err != nil || index < 0 {
				return nil, fmt.Errorf("expr: %q: invalid index %q", raw, digits)
			}
			steps = append(steps, step{index: index, isIdx: true})
			i += closing + 1
		default:
			if !expectKey {
				return nil, fmt.Errorf("expr: %q: unexpected character %q", raw, raw[i])
			}
			start := i
			for i < len(raw) && raw[i] != '.' && raw[i] != '[' {
				i++
			}
			key := strings.TrimSpace(raw[start:i])
			if key == "" {
				return nil, fmt.Errorf("expr: %q: empty path segment", raw)
			}
			steps = append(steps, step{key: key})
			expectKey = false
		}
	}
	if expectKey {
		return nil, fmt.Errorf("expr: %q: trailing '.'", raw)
	}
	return steps, nil
}

// root returns the binding name the path starts at, or "" for a malformed
// path.
func (p placeholder) root() string {
	if len(p.path) == 0 || p.path[0].isIdx {
		return ""
	}
	return p.path[0].key
}
