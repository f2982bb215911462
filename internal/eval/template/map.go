package template

import (
	"github.com/tidwall/gjson"
)

// Map is a string-keyed map that remembers insertion order
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap creates an empty map
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Get returns the own value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Undefined, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set stores a value, keeping the original position of existing keys
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Len returns the number of own keys
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Overlay returns a new map holding m's entries overwritten by other's
func (m *Map) Overlay(other *Map) *Map {
	out := &Map{
		keys: make([]string, 0, m.Len()+other.Len()),
		vals: make(map[string]Value, m.Len()+other.Len()),
	}
	m.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	other.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// FromJSON decodes a JSON document into a Value. Object keys keep
// their document order. Invalid JSON yields Undefined.
func FromJSON(data []byte) Value {
	if !gjson.ValidBytes(data) {
		return Undefined
	}
	return fromResult(gjson.ParseBytes(data))
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(r.Num)
	case gjson.String:
		return String(r.Str)
	}
	if r.IsArray() {
		items := []Value{}
		r.ForEach(func(_, item gjson.Result) bool {
			items = append(items, fromResult(item))
			return true
		})
		return List(items...)
	}
	if r.IsObject() {
		m := NewMap()
		r.ForEach(func(key, item gjson.Result) bool {
			m.Set(key.Str, fromResult(item))
			return true
		})
		return MapValue(m)
	}
	return Undefined
}
