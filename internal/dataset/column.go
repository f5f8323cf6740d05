package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the storage kind declared for (or inferred from) a column.
type Kind int

const (
	KindObject Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindString
	KindCategory
	KindCompound
)

var kindNames = map[Kind]string{
	KindObject:   "object",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindTime:     "time",
	KindString:   "string",
	KindCategory: "category",
	KindCompound: "compound",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name (as printed by Kind.String) back to a Kind.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == want {
			return k, nil
		}
	}
	return KindObject, fmt.Errorf("unknown column kind: %q", s)
}

// MarshalText renders the kind name in JSON/YAML output.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// IsNumeric reports whether values of this kind are integers or floats.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// Column is a named, immutable sequence of values of a single storage kind.
// A nil value is the missing sentinel.
type Column struct {
	name   string
	kind   Kind
	values []any
}

// NewColumn validates values against kind and returns a column owning a copy
// of them. Integer types widen to int64, float32 to float64, and NaN or
// infinite floats become missing.
func NewColumn(name string, kind Kind, values []any) (*Column, error) {
	out := make([]any, len(values))
	for i, v := range values {
		nv, err := normalize(kind, v)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		out[i] = nv
	}
	return &Column{name: name, kind: kind, values: out}, nil
}

// MustColumn is NewColumn that panics on invalid input. Intended for fixtures.
func MustColumn(name string, kind Kind, values ...any) *Column {
	c, err := NewColumn(name, kind, values)
	if err != nil {
		panic(err)
	}
	return c
}

// Ints builds an integer column without missing values.
func Ints(name string, values ...int64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{name: name, kind: KindInt, values: out}
}

// Floats builds a float column; NaN and infinite entries are treated as missing.
func Floats(name string, values ...float64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		if finite(v) {
			out[i] = v
		}
	}
	return &Column{name: name, kind: KindFloat, values: out}
}

// Strings builds a free-text column without missing values.
func Strings(name string, values ...string) *Column {
	return &Column{name: name, kind: KindString, values: stringsToAny(values)}
}

// Categories builds an explicitly categorical column.
func Categories(name string, values ...string) *Column {
	return &Column{name: name, kind: KindCategory, values: stringsToAny(values)}
}

// Bools builds a boolean column without missing values.
func Bools(name string, values ...bool) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{name: name, kind: KindBool, values: out}
}

// Times builds a timestamp column without missing values.
func Times(name string, values ...time.Time) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{name: name, kind: KindTime, values: out}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Len() int     { return len(c.values) }

// Value returns the raw value at row i (nil when missing).
func (c *Column) Value(i int) any { return c.values[i] }

// IsMissing reports whether row i holds the missing sentinel.
func (c *Column) IsMissing(i int) bool { return c.values[i] == nil }

// Values returns a copy of the value sequence.
func (c *Column) Values() []any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// MissingCount returns the number of missing entries.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.values {
		if v == nil {
			n++
		}
	}
	return n
}

// Float returns row i as float64. ok is false for missing or non-numeric values.
func (c *Column) Float(i int) (float64, bool) {
	return toFloat(c.values[i])
}

// FirstPresent returns the first non-missing value, or nil.
func (c *Column) FirstPresent() any {
	for _, v := range c.values {
		if v != nil {
			return v
		}
	}
	return nil
}

// Select returns a new column holding the given rows in order.
func (c *Column) Select(rows []int) *Column {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = c.values[r]
	}
	return &Column{name: c.name, kind: c.kind, values: out}
}

// Rename returns a copy of the column under a new name.
func (c *Column) Rename(name string) *Column {
	return &Column{name: name, kind: c.kind, values: c.values}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func normalize(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int8:
			return int64(x), nil
		case int16:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case uint8:
			return int64(x), nil
		case uint16:
			return int64(x), nil
		case uint32:
			return int64(x), nil
		case uint:
			if uint64(x) > math.MaxInt64 {
				return nil, fmt.Errorf("integer overflow: %d", x)
			}
			return int64(x), nil
		case uint64:
			if x > math.MaxInt64 {
				return nil, fmt.Errorf("integer overflow: %d", x)
			}
			return int64(x), nil
		}
	case KindFloat:
		switch x := v.(type) {
		case float64:
			if !finite(x) {
				return nil, nil
			}
			return x, nil
		case float32:
			if !finite(float64(x)) {
				return nil, nil
			}
			return float64(x), nil
		case int:
			return float64(x), nil
		case int32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	case KindString, KindCategory:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindCompound:
		switch x := v.(type) {
		case []any, map[string]any:
			return x, nil
		}
	case KindObject:
		return v, nil
	}
	return nil, fmt.Errorf("value %v (%T) does not fit kind %s", v, v, kind)
}

// finite reports whether f is neither NaN nor infinite. Non-finite floats are
// stored as missing.
func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ValueKey returns a comparable identity for a value. Values that compare
// equal (including int64 1 and float64 1.0) share a key; missing has its own.
func ValueKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case int64:
		return "n:" + strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return "n:" + strconv.FormatInt(int64(x), 10)
		}
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return "b:" + strconv.FormatBool(x)
	case string:
		return "s:" + x
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("o:%#v", x)
	}
}

// FormatValue renders a value for reports; missing renders as "".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
