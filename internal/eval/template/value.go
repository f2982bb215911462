package template

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aymerick/raymond"
)

// decimalNumber is the text accepted as numeric by Float
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Kind identifies the variant held by a Value
type Kind int

const (
	// KindUndefined is the zero Value: a path that resolved to nothing
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindMap
	KindList
	KindLambda
	KindSafe
)

var kindNames = [...]string{"undefined", "null", "bool", "number", "string", "map", "list", "lambda", "safe"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a context value. The zero Value is undefined.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	m    *Map
	list []Value
	fn   Lambda
	safe *Value
}

// LambdaCall carries the arguments of a lambda invocation.
// Text and Render are only set when the lambda is used as a section.
type LambdaCall struct {
	Context *Context
	Text    string
	Render  func(text string) (string, error)
}

// Lambda is a callable context value
type Lambda func(call LambdaCall) (any, error)

var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
)

// String returns a string value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a number value
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a sequence value
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// MapValue wraps an ordered map
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// LambdaValue wraps a callable
func LambdaValue(fn Lambda) Value {
	if fn == nil {
		return Null
	}
	return Value{kind: KindLambda, fn: fn}
}

// Safe marks v as already escaped. Wrapping a Safe value is a no-op.
func Safe(v Value) Value {
	if v.kind == KindSafe {
		return v
	}
	return Value{kind: KindSafe, safe: &v}
}

func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is undefined or null
func (v Value) IsMissing() bool { return v.kind == KindUndefined || v.kind == KindNull }

// IsSafe reports whether v bypasses escaping
func (v Value) IsSafe() bool { return v.kind == KindSafe }

// Unwrap returns the value behind a Safe marker
func (v Value) Unwrap() Value {
	if v.kind == KindSafe {
		return *v.safe
	}
	return v
}

// Map returns the underlying map for map values
func (v Value) Map() (*Map, bool) {
	v = v.Unwrap()
	return v.m, v.kind == KindMap
}

// Items returns the elements of a list value
func (v Value) Items() ([]Value, bool) {
	v = v.Unwrap()
	return v.list, v.kind == KindList
}

// Lambda returns the callable of a lambda value
func (v Value) Lambda() (Lambda, bool) {
	return v.fn, v.kind == KindLambda
}

// Truthy follows template truthiness: undefined, null, false, 0, NaN and ""
// are false, every map, list and lambda is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindString:
		return v.str != ""
	case KindSafe:
		return v.safe.Truthy()
	default:
		return true
	}
}

// Float returns the numeric reading of v. Numbers and decimal strings
// qualify, as do the spellings "Infinity" and "-Infinity".
func (v Value) Float() (float64, bool) {
	v = v.Unwrap()
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return 0, false
		}
		return v.num, true
	case KindString:
		s := strings.TrimSpace(v.str)
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
		if !decimalNumber.MatchString(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String coerces v to text. Missing values become "", lists are joined
// with commas and maps render as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined, KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case KindMap:
		data, err := encodeJSON(v, 0)
		if err != nil {
			return ""
		}
		return data
	case KindLambda:
		return ""
	case KindSafe:
		return v.safe.String()
	}
	return ""
}

// Interface converts v back to plain Go data
func (v Value) Interface() any {
	switch v.kind {
	case KindNull, KindUndefined:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		v.m.Range(func(key string, val Value) bool {
			out[key] = val.Interface()
			return true
		})
		return out
	case KindLambda:
		return v.fn
	case KindSafe:
		return v.safe.Interface()
	}
	return nil
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ValueOf converts Go data into a Value. Go maps are ordered by key;
// unsupported types are round-tripped through encoding/json.
func ValueOf(data any) Value {
	switch d := data.(type) {
	case nil:
		return Null
	case Value:
		return d
	case *Context:
		return d.Value()
	case *Map:
		return MapValue(d)
	case Lambda:
		return LambdaValue(d)
	case func(LambdaCall) (any, error):
		return LambdaValue(d)
	case func() any:
		return LambdaValue(func(LambdaCall) (any, error) { return d(), nil })
	case func() string:
		return LambdaValue(func(LambdaCall) (any, error) { return d(), nil })
	case func(string, func(string) (string, error)) (string, error):
		return LambdaValue(func(call LambdaCall) (any, error) {
			render := call.Render
			if render == nil {
				render = func(s string) (string, error) { return s, nil }
			}
			return d(call.Text, render)
		})
	case raymond.SafeString:
		return Safe(String(string(d)))
	case string:
		return String(d)
	case bool:
		return Bool(d)
	case int:
		return Number(float64(d))
	case int64:
		return Number(float64(d))
	case int32:
		return Number(float64(d))
	case uint:
		return Number(float64(d))
	case uint64:
		return Number(float64(d))
	case float64:
		return Number(d)
	case float32:
		return Number(float64(d))
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return String(d.String())
		}
		return Number(f)
	case time.Time:
		return String(d.Format(time.RFC3339Nano))
	case []any:
		items := make([]Value, len(d))
		for i, item := range d {
			items[i] = ValueOf(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(d))
		for i, item := range d {
			items[i] = String(item)
		}
		return List(items...)
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, ValueOf(d[k]))
		}
		return MapValue(m)
	case map[string]string:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, String(d[k]))
		}
		return MapValue(m)
	}
	return valueOfReflect(reflect.ValueOf(data))
}

func valueOfReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null
		}
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = ValueOf(rv.Index(i).Interface())
		}
		return List(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		m := NewMap()
		for _, k := range keys {
			m.Set(k.String(), ValueOf(rv.MapIndex(k).Interface()))
		}
		return MapValue(m)
	case reflect.Func, reflect.Chan:
		return Undefined
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return String(fmt.Sprint(rv.Interface()))
	}
	return FromJSON(data)
}
