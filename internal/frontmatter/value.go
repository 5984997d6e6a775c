// Package frontmatter models arbitrary note metadata as a tagged value tree
// and canonicalizes raw frontmatter keys into flat and nested maps.
package frontmatter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindMap
)

func (k Kind) String() string {
	return [...]string{"null", "string", "number", "bool", "array", "map"}[k]
}

// Value is one node of a frontmatter tree. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Array returns an array value holding items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Map returns a map value. A nil map is replaced by an empty one.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// FromAny converts a decoded YAML/JSON value into a Value. Map keys are kept
// as-is; unknown scalar types are coerced with fmt.Sprint.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return String(t.Format(time.DateOnly))
		}
		return String(t.Format(time.RFC3339))
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return Array(items...)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Array(items...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromAny(item)
		}
		return Map(m)
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = FromAny(item)
		}
		return Map(m)
	default:
		return String(fmt.Sprint(t))
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload when v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload when v is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload when v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns the elements of an array value, or nil.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Fields returns the entries of a map value, or nil.
func (v Value) Fields() map[string]Value {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// IsEmpty reports whether v carries no information: null, "", [] or {}.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindArray:
		return len(v.arr) == 0
	case KindMap:
		return len(v.m) == 0
	}
	return false
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := o.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// String coerces v to text: scalars print naturally, null is empty, arrays
// join their elements with ", " and maps encode as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	case KindMap:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

// Any converts v back into plain Go values (string, float64, bool, nil,
// []any, map[string]any).
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Any()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes v as its plain JSON equivalent.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes any JSON document into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Visitor is called for every leaf (non-container) value reached by Walk.
// path is the dotted location of the leaf; array elements use their index.
type Visitor func(path string, v Value)

// Walk visits the leaves of v depth-first. Map keys are visited in sorted
// order so that visitation is deterministic.
func Walk(v Value, path string, fn Visitor) {
	switch v.kind {
	case KindArray:
		for i, item := range v.arr {
			Walk(item, joinPath(path, strconv.Itoa(i)), fn)
		}
	case KindMap:
		for _, k := range sortedKeys(v.m) {
			Walk(v.m[k], joinPath(path, k), fn)
		}
	default:
		fn(path, v)
	}
}

// WalkStrings visits only the string leaves of v.
func WalkStrings(v Value, fn func(path, s string)) {
	Walk(v, "", func(path string, leaf Value) {
		if s, ok := leaf.AsString(); ok {
			fn(path, s)
		}
	})
}

// MapStrings returns a copy of v with every string leaf replaced by
// fn(path, s). Containers are copied; v is not modified.
func MapStrings(v Value, path string, fn func(path, s string) string) Value {
	switch v.kind {
	case KindString:
		return String(fn(path, v.str))
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = MapStrings(item, joinPath(path, strconv.Itoa(i)), fn)
		}
		return Array(items...)
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, item := range v.m {
			m[k] = MapStrings(item, joinPath(path, k), fn)
		}
		return Map(m)
	}
	return v
}

// Lookup descends m along segments. Array elements are addressed by index.
func Lookup(m map[string]Value, segments []string) (Value, bool) {
	if len(segments) == 0 {
		return Value{}, false
	}
	cur, ok := m[segments[0]]
	if !ok {
		return Value{}, false
	}
	for _, seg := range segments[1:] {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.arr) {
				return Value{}, false
			}
			cur = cur.arr[i]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

func joinPath(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
