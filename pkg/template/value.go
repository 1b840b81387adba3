package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is the tagged variant carried by variable bindings. The zero Value
// is null. Values are immutable once constructed; Clone copies the backing
// slices and maps so callers can share them safely.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	date time.Time
	arr  []Value
	obj  map[string]Value
}

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date wraps a timestamp value.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Array wraps a list of values.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Object wraps a map of values.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// Null is the absent value.
func Null() Value { return Value{} }

// Kind returns the variant discriminator.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports whether the value is null, a blank string, or an empty
// array/object. Used by the variable-hygiene checks.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindArray:
		return len(v.arr) == 0
	case KindObject:
		return len(v.obj) == 0
	default:
		return false
	}
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsDate returns the timestamp payload.
func (v Value) AsDate() (time.Time, bool) { return v.date, v.kind == KindDate }

// AsArray returns the list payload.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the map payload.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// IsNaN reports whether the value is a number holding NaN.
func (v Value) IsNaN() bool { return v.kind == KindNumber && math.IsNaN(v.num) }

// Clone deep-copies arrays and objects; scalar variants are returned as-is.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: items}
	case KindObject:
		fields := make(map[string]Value, len(v.obj))
		for key, field := range v.obj {
			fields[key] = field.Clone()
		}
		return Value{kind: KindObject, obj: fields}
	default:
		return v
	}
}

// String renders the native text form: strings verbatim, numbers via
// strconv, booleans as true/false, dates as ISO-8601, arrays comma-joined,
// objects as JSON falling back to "[Object]".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.date.UTC().Format(time.RFC3339)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	case KindObject:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "[Object]"
		}
		return string(encoded)
	default:
		return ""
	}
}

// Interface converts the value back to plain Go types, mainly for JSON and
// log serialisation.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.date.UTC().Format(time.RFC3339)
	case KindArray:
		items := make([]any, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Interface()
		}
		return items
	case KindObject:
		fields := make(map[string]any, len(v.obj))
		for key, field := range v.obj {
			fields[key] = field.Interface()
		}
		return fields
	default:
		return nil
	}
}

// MarshalJSON encodes the plain-Go projection, so dates serialise as
// ISO-8601 strings per the persisted template contract.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes arbitrary JSON into the matching variant. Strings in
// RFC 3339 form become dates so round-trips preserve the date kind.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("template: decode value: %w", err)
	}
	decoded, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML-persisted templates.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// UnmarshalYAML decodes a YAML node into the matching variant.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("template: decode yaml value: %w", err)
	}
	decoded, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromAny converts plain Go data (typically decoded JSON or YAML) into a
// Value. Unsupported types return an error rather than a lossy guess.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed, nil
	case string:
		if ts, err := time.Parse(time.RFC3339, typed); err == nil {
			return Date(ts), nil
		}
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("template: invalid number %q: %w", typed.String(), err)
		}
		return Number(f), nil
	case time.Time:
		return Date(typed), nil
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = converted
		}
		return Object(fields), nil
	default:
		return Value{}, fmt.Errorf("template: unsupported value type %T", raw)
	}
}

// Bindings is the flat map of variable name to value supplied per generate
// call. Engines never mutate a caller's bindings.
type Bindings map[string]Value

// BindingsFromAny converts a plain map into Bindings.
func BindingsFromAny(raw map[string]any) (Bindings, error) {
	out := make(Bindings, len(raw))
	for name, value := range raw {
		converted, err := FromAny(value)
		if err != nil {
			return nil, fmt.Errorf("template: binding %q: %w", name, err)
		}
		out[name] = converted
	}
	return out, nil
}

// Clone deep-copies the binding map.
func (b Bindings) Clone() Bindings {
	if b == nil {
		return nil
	}
	out := make(Bindings, len(b))
	for name, value := range b {
		out[name] = value.Clone()
	}
	return out
}

// Names returns the sorted binding names, for deterministic validation
// output.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
