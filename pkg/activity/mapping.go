package activity

import (
	"maps"
	"slices"

	"keeptrack/pkg/requestcontext"
)

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// E is shorthand for building an Entry.
func E(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// Mapping is a string-keyed map of Values that remembers insertion order.
// Read methods, Delete and Merge are safe on a nil *Mapping, which behaves
// as empty. Set needs a mapping from NewMapping or Literals.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping builds a mapping from entries; later duplicates overwrite the
// value but keep the first position.
func NewMapping(entries ...Entry) *Mapping {
	m := &Mapping{values: make(map[string]Value, len(entries))}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Literals builds a mapping of literal values. Order follows the sorted
// keys of the input since Go maps are unordered.
func Literals(values map[string]any) *Mapping {
	m := NewMapping()
	for _, k := range slices.Sorted(maps.Keys(values)) {
		m.Set(k, Literal(values[k]))
	}
	return m
}

// Set stores v under key and returns m for chaining.
func (m *Mapping) Set(key string, v Value) *Mapping {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key, keeping the order of the rest.
func (m *Mapping) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len is the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Entries returns the entries in insertion order.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry{Key: k, Value: m.values[k]})
	}
	return out
}

// Clone returns an independent copy. Nested mappings are shared.
func (m *Mapping) Clone() *Mapping {
	return NewMapping(m.Entries()...)
}

// Merge returns a new mapping holding m's entries overlaid with other's.
// On collision other wins; keys keep the position of their first appearance.
func (m *Mapping) Merge(other *Mapping) *Mapping {
	out := m.Clone()
	for _, e := range other.Entries() {
		out.Set(e.Key, e.Value)
	}
	return out
}

// Resolve evaluates every entry in insertion order and stops at the first error.
func (m *Mapping) Resolve(subject Subject, caller *requestcontext.Caller) (map[string]any, error) {
	out := make(map[string]any, m.Len())
	for _, e := range m.Entries() {
		v, err := Resolve(e.Value, subject, caller)
		if err != nil {
			return nil, err
		}
		out[e.Key] = v
	}
	return out, nil
}
