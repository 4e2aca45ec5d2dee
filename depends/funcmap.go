package depends

import (
	"bytes"
	"encoding/json"
)

// FunctionMap maps function names to their defining file, remembering
// insertion order. The first path recorded for a name is kept.
type FunctionMap struct {
	names []string
	paths map[string]string
}

// NewFunctionMap returns an empty map.
func NewFunctionMap() *FunctionMap {
	return &FunctionMap{paths: make(map[string]string)}
}

// Len returns the number of functions.
func (m *FunctionMap) Len() int { return len(m.names) }

// Has reports whether name has been recorded.
func (m *FunctionMap) Has(name string) bool {
	_, ok := m.paths[name]
	return ok
}

// Path returns the defining file of name.
func (m *FunctionMap) Path(name string) (string, bool) {
	p, ok := m.paths[name]
	return p, ok
}

// Names returns the recorded names in insertion order.
func (m *FunctionMap) Names() []string {
	return append([]string(nil), m.names...)
}

// Each calls fn for every entry in insertion order.
func (m *FunctionMap) Each(fn func(name, path string)) {
	for _, n := range m.names {
		fn(n, m.paths[n])
	}
}

// add records name unless it is already present and reports whether it
// did.
func (m *FunctionMap) add(name, path string) bool {
	if m.Has(name) {
		return false
	}
	m.names = append(m.names, name)
	m.paths[name] = path
	return true
}

// MarshalJSON encodes the map as a JSON object with keys in insertion
// order.
func (m *FunctionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.paths[n])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
