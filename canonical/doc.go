// Package canonical converts arbitrary Go values returned by agents into a
// canonical, acyclic, JSON-safe value.
//
// A canonical value is one of:
//
//   - nil, bool, int64, uint64, float64, string
//   - []any of canonical values
//   - *Map, an insertion-ordered string keyed map of canonical values
//
// Serialize applies a fixed precedence table (primitives, sequences, maps,
// canonical dump methods, result carriers, exported struct fields, string
// fallback). The table is part of the package contract and covered by tests.
package canonical
