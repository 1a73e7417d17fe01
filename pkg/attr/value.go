// Package attr defines the typed attribute bag carried by layout components.
// Values are restricted to strings, integers, floats, booleans and lists of
// those kinds so cached layouts serialise deterministically.
package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind enumerates the value kinds an attribute can hold.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a single attribute value. The zero value is invalid and is
// dropped from views and snapshots.
type Value struct {
	kind  Kind
	str   string
	num   int64
	float float64
	flag  bool
	list  []Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Int(n int64) Value     { return Value{kind: KindInt, num: n} }
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }
func Bool(b bool) Value     { return Value{kind: KindBool, flag: b} }
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

// Strings builds a list value from plain strings.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = String(item)
	}
	return Value{kind: KindList, list: out}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsValid() bool  { return v.kind != KindInvalid }
func (v Value) Str() string    { return v.str }
func (v Value) Int() int64     { return v.num }
func (v Value) Float() float64 { return v.float }
func (v Value) Bool() bool     { return v.flag }
func (v Value) Len() int       { return len(v.list) }
func (v Value) Items() []Value { return append([]Value(nil), v.list...) }

// String renders the value for logs and terminal output.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.float, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(item.String())
		}
		buf.WriteByte(']')
		return buf.String()
	default:
		return ""
	}
}

// Interface converts the value into plain Go types (string, int64, float64,
// bool, []any).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.float
	case KindBool:
		return v.flag
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, item := range v.list {
			if item.IsValid() {
				out = append(out, item.Interface())
			}
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality between two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindFloat:
		return v.float == other.float
	case KindBool:
		return v.flag == other.flag
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Of converts a plain Go value into a Value. Maps and structs are encoded as
// their JSON string; unsupported values report false.
func Of(raw any) (Value, bool) {
	switch typed := raw.(type) {
	case nil:
		return Value{}, false
	case Value:
		return typed, typed.IsValid()
	case string:
		return String(typed), true
	case bool:
		return Bool(typed), true
	case int:
		return Int(int64(typed)), true
	case int8:
		return Int(int64(typed)), true
	case int16:
		return Int(int64(typed)), true
	case int32:
		return Int(int64(typed)), true
	case int64:
		return Int(typed), true
	case uint:
		return Int(int64(typed)), true
	case uint8:
		return Int(int64(typed)), true
	case uint16:
		return Int(int64(typed)), true
	case uint32:
		return Int(int64(typed)), true
	case uint64:
		if typed > math.MaxInt64 {
			return Float(float64(typed)), true
		}
		return Int(int64(typed)), true
	case float32:
		return number(float64(typed)), true
	case float64:
		return number(typed), true
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return Int(n), true
		}
		if f, err := typed.Float64(); err == nil {
			return Float(f), true
		}
		return String(typed.String()), true
	case []string:
		return Strings(typed...), true
	case []Value:
		return List(typed...), true
	case []any:
		items := make([]Value, 0, len(typed))
		for _, item := range typed {
			if value, ok := Of(item); ok {
				items = append(items, value)
			}
		}
		return List(items...), true
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return Value{}, false
		}
		return String(string(encoded)), true
	}
}

// MustOf converts raw and panics when the value is unsupported.
func MustOf(raw any) Value {
	value, ok := Of(raw)
	if !ok {
		panic(fmt.Sprintf("attr: unsupported value %T", raw))
	}
	return value
}

func number(f float64) Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}
	return Float(f)
}

// MarshalJSON encodes the value as its plain JSON counterpart.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes plain JSON into the closed value set. Integral
// numbers become ints.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("attr: decode value: %w", err)
	}
	value, ok := Of(raw)
	if !ok {
		*v = Value{}
		return nil
	}
	*v = value
	return nil
}

// sortedKeys returns map keys in lexical order.
func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
