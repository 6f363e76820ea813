// Package attribute defines the normalized output model of the connector
// framework: a map from attribute identifier to an ordered sequence of
// opaque values. The value type system itself is external to the framework;
// values are carried through without interpretation.
package attribute

import (
	"fmt"
	"sort"
)

// Value is an opaque attribute value. Connectors produce values from
// backend-native data and never inspect them afterwards.
type Value struct {
	raw interface{}
}

// String creates a string-backed value
func String(s string) Value {
	return Value{raw: s}
}

// Bytes creates a byte-slice-backed value
func Bytes(b []byte) Value {
	return Value{raw: b}
}

// Raw returns the underlying value
func (v Value) Raw() interface{} {
	return v.raw
}

// String renders the value for logging and display
func (v Value) String() string {
	switch r := v.raw.(type) {
	case string:
		return r
	case []byte:
		return string(r)
	default:
		return fmt.Sprintf("%v", r)
	}
}

// Map is the connector output: attribute identifier to ordered values.
// Absence of a key means "no value produced", not an error.
type Map map[string][]Value

// NewMap creates an empty attribute map
func NewMap() Map {
	return make(Map)
}

// Add appends values to the attribute with the given identifier
func (m Map) Add(id string, values ...Value) {
	if len(values) == 0 {
		return
	}
	m[id] = append(m[id], values...)
}

// AddStrings appends string values to the attribute with the given identifier
func (m Map) AddStrings(id string, values ...string) {
	for _, v := range values {
		m[id] = append(m[id], String(v))
	}
}

// Get returns the ordered values for an attribute, or nil if absent
func (m Map) Get(id string) []Value {
	return m[id]
}

// Strings returns the values for an attribute rendered as strings
func (m Map) Strings(id string) []string {
	values := m[id]
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

// Has reports whether the attribute identifier is present
func (m Map) Has(id string) bool {
	_, ok := m[id]
	return ok
}

// IsEmpty reports whether the map carries no attributes
func (m Map) IsEmpty() bool {
	return len(m) == 0
}

// IDs returns the attribute identifiers in sorted order
func (m Map) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a copy of the map; value slices are copied, values shared
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, values := range m {
		copied := make([]Value, len(values))
		copy(copied, values)
		out[id] = copied
	}
	return out
}

// Merge appends all attributes from other into m
func (m Map) Merge(other Map) {
	for id, values := range other {
		m[id] = append(m[id], values...)
	}
}
