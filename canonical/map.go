package canonical

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an ordered mapping of string keys to canonical values. Keys are
// unique; the first Set of a key fixes its position. It marshals to JSON in
// insertion order.
type Map = orderedmap.OrderedMap[string, any]

// NewMap returns an empty Map.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// MapOf builds a Map from alternating key/value arguments. It panics on an odd
// argument count or a non-string key and is meant for literals in tests and
// agents.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("canonical: MapOf requires key/value pairs")
	}

	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}

	return m
}

// Keys returns the keys of m in order.
func Keys(m *Map) []string {
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	return keys
}

// ToPlain converts a canonical value into plain Go maps and slices, dropping
// key order. Useful for handing canonical values to APIs that expect
// map[string]any.
func ToPlain(v any) any {
	switch x := v.(type) {
	case *Map:
		out := make(map[string]any, x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToPlain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToPlain(e)
		}
		return out
	default:
		return v
	}
}
