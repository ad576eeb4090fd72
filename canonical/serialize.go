package canonical

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxDepth bounds recursion. Deeper nodes are replaced by a type placeholder.
const MaxDepth = 64

// DefaultMaxNodes bounds the number of nodes in one serialized result.
const DefaultMaxNodes = 1 << 20

// MapConverter is implemented by results that can render themselves as a plain map.
type MapConverter interface {
	ToMap() map[string]any
}

// Dumper is implemented by results that expose a canonical dump of their state.
type Dumper interface {
	Dump() any
}

// ResultsCarrier is implemented by search and retrieval wrappers whose payload
// lives in a results collection.
type ResultsCarrier interface {
	Results() any
}

// Options tune Serialize.
type Options struct {
	// PrivatePrefix excludes struct fields whose serialized name starts with it.
	// Empty disables the filter.
	PrivatePrefix string

	// MaxNodes bounds the size of the canonical value. Nodes beyond it are
	// replaced by a placeholder. Defaults to DefaultMaxNodes.
	MaxNodes int

	// OnFallback, if set, is called whenever a node falls back to its string form.
	OnFallback func(typ string, reason string)
}

// Serialize converts v into a canonical value.
//
// Precedence, first match wins:
//  1. primitives (nil, bool, numbers, strings)
//  2. slices and arrays, element-wise
//  3. maps with key order preserved (*Map) or sorted (Go maps)
//  4. ToMap, Dump, MarshalJSON, MarshalText, error
//  5. Results() method or exported Results field
//  6. exported struct fields minus private-prefixed names and func/chan values
//  7. string representation
//
// Cycles and panics inside a node fall back to step 7 for that node only. The
// returned error is non-nil only when the fallback itself fails.
func Serialize(v any, optFns ...func(o *Options)) (any, error) {
	opts := Options{PrivatePrefix: "_", MaxNodes: DefaultMaxNodes}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &serializer{
		opts:   opts,
		onPath: map[visitKey]struct{}{},
		done:   map[visitKey]memoEntry{},
	}

	return s.value(v, 0)
}

type visitKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// memoEntry is the canonical form of a reference value that was walked
// completely, without cycle or depth placeholders.
type memoEntry struct {
	out   any
	depth int
	size  int
}

type serializer struct {
	opts      Options
	onPath    map[visitKey]struct{}
	done      map[visitKey]memoEntry
	nodes     int
	truncated int
}

// value serializes v, reusing the result of an earlier complete walk when v
// is a reference seen before at the same or a greater depth. Shared acyclic
// references are therefore walked once per Serialize call.
func (s *serializer) value(v any, depth int) (any, error) {
	if s.opts.MaxNodes > 0 && s.nodes >= s.opts.MaxNodes {
		return s.placeholder(v, "node limit exceeded"), nil
	}

	key, ok := referenceKey(v)
	if !ok {
		s.nodes++
		return s.walk(v, depth)
	}

	if e, hit := s.done[key]; hit && depth <= e.depth {
		if s.opts.MaxNodes > 0 && s.nodes+e.size > s.opts.MaxNodes {
			s.nodes = s.opts.MaxNodes
			return s.placeholder(v, "node limit exceeded"), nil
		}
		s.nodes += e.size
		return e.out, nil
	}

	mark, start := s.truncated, s.nodes
	s.nodes++

	out, err := s.walk(v, depth)
	if err == nil && s.truncated == mark {
		s.done[key] = memoEntry{out: out, depth: depth, size: s.nodes - start}
	}

	return out, err
}

func referenceKey(v any) (visitKey, bool) {
	if v == nil {
		return visitKey{}, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return visitKey{}, false
		}
	default:
		return visitKey{}, false
	}

	key := visitKey{typ: rv.Type(), ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}

	return key, true
}

func (s *serializer) walk(v any, depth int) (out any, err error) {
	if v == nil {
		return nil, nil
	}

	if depth > MaxDepth {
		return s.placeholder(v, "max depth exceeded"), nil
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = s.fallback(v, fmt.Sprintf("panic: %v", r))
		}
	}()

	if m, ok := v.(*Map); ok {
		return s.orderedMap(m, depth)
	}

	if n, ok := v.(json.Number); ok {
		return number(n), nil
	}

	rv := reflect.ValueOf(v)

	// Resolve pointers and interfaces, guarding against reference cycles.
	target := rv
	derefed := false
	for target.Kind() == reflect.Pointer || target.Kind() == reflect.Interface {
		if target.IsNil() {
			return nil, nil
		}
		if target.Kind() == reflect.Pointer {
			leave, cyclic := s.enter(target)
			if cyclic {
				return s.placeholder(v, "cycle"), nil
			}
			defer leave()
		}
		target = target.Elem()
		derefed = true
	}

	// 1. primitives
	if p, ok := primitive(target); ok {
		return p, nil
	}

	switch target.Kind() {
	case reflect.Slice, reflect.Array:
		// 2. sequences
		if target.Kind() == reflect.Slice && target.Type().Elem().Kind() == reflect.Uint8 {
			return bytesString(target.Bytes()), nil
		}
		if target.Kind() == reflect.Slice {
			leave, cyclic := s.enter(target)
			if cyclic {
				return s.placeholder(v, "cycle"), nil
			}
			defer leave()
		}
		return s.sequence(target, depth)
	case reflect.Map:
		// 3. records
		leave, cyclic := s.enter(target)
		if cyclic {
			return s.placeholder(v, "cycle"), nil
		}
		defer leave()
		return s.goMap(target, depth)
	}

	holders := []any{v}
	if derefed && target.CanInterface() {
		holders = append(holders, target.Interface())
	}

	// 4. canonical dump capabilities
	for _, h := range holders {
		if dumped, ok, err := s.dump(h); ok {
			if err != nil {
				return s.fallback(v, err.Error())
			}
			return s.value(dumped, depth+1)
		}
	}

	// 5. result carriers
	for _, h := range holders {
		if rc, ok := h.(ResultsCarrier); ok {
			return s.value(rc.Results(), depth+1)
		}
	}
	if target.Kind() == reflect.Struct {
		if f, ok := target.Type().FieldByName("Results"); ok && f.IsExported() && len(f.Index) == 1 {
			return s.value(target.FieldByIndex(f.Index).Interface(), depth+1)
		}
	}

	// 6. field enumeration
	if target.Kind() == reflect.Struct {
		return s.structFields(target, depth)
	}

	// 7. string fallback
	return s.fallback(v, "no canonical form")
}

// enter marks a reference value as being on the current path. It reports a
// cycle when the value is already being visited.
func (s *serializer) enter(rv reflect.Value) (func(), bool) {
	ptr := rv.Pointer()
	if ptr == 0 {
		return func() {}, false
	}

	key := visitKey{typ: rv.Type(), ptr: ptr}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}

	if _, ok := s.onPath[key]; ok {
		return nil, true
	}

	s.onPath[key] = struct{}{}

	return func() { delete(s.onPath, key) }, false
}

func (s *serializer) orderedMap(m *Map, depth int) (any, error) {
	out := NewMap()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		v, err := s.value(pair.Value, depth+1)
		if err != nil {
			return nil, err
		}
		out.Set(pair.Key, v)
	}

	return out, nil
}

func (s *serializer) sequence(rv reflect.Value, depth int) (any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		v, err := s.value(rv.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

func (s *serializer) goMap(rv reflect.Value, depth int) (any, error) {
	type entry struct {
		key string
		val reflect.Value
	}

	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: keyString(iter.Key()), val: iter.Value()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := NewMap()
	for _, e := range entries {
		v, err := s.value(e.val.Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		out.Set(e.key, v)
	}

	return out, nil
}

func (s *serializer) structFields(rv reflect.Value, depth int) (any, error) {
	out := NewMap()
	if err := s.collectFields(out, rv, depth); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *serializer) collectFields(out *Map, rv reflect.Value, depth int) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		fv := rv.Field(i)

		if f.Anonymous && f.Tag.Get("json") == "" {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}
				ev = ev.Elem()
			}
			if ev.Kind() == reflect.Struct {
				if err := s.collectFields(out, ev, depth); err != nil {
					return err
				}
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		name, omitEmpty, skip := fieldName(f)
		if skip {
			continue
		}
		if s.opts.PrivatePrefix != "" && strings.HasPrefix(name, s.opts.PrivatePrefix) {
			continue
		}
		if isCallable(fv) {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if _, dup := out.Get(name); dup {
			continue
		}

		v, err := s.value(fv.Interface(), depth+1)
		if err != nil {
			return err
		}
		out.Set(name, v)
	}

	return nil
}

// dump applies the first canonical dump capability h exposes.
func (s *serializer) dump(h any) (any, bool, error) {
	switch x := h.(type) {
	case MapConverter:
		return x.ToMap(), true, nil
	case Dumper:
		return x.Dump(), true, nil
	case json.Marshaler:
		data, err := x.MarshalJSON()
		if err != nil {
			return nil, true, err
		}
		v, err := FromJSON(data)
		return v, true, err
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return nil, true, err
		}
		return string(text), true, nil
	case error:
		return x.Error(), true, nil
	}

	return nil, false, nil
}

func (s *serializer) fallback(v any, reason string) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &SerializationError{Type: fmt.Sprintf("%T", v), Cause: fmt.Errorf("string fallback: %v", r)}
		}
	}()

	if s.opts.OnFallback != nil {
		s.opts.OnFallback(fmt.Sprintf("%T", v), reason)
	}

	switch x := v.(type) {
	case fmt.Stringer:
		return x.String(), nil
	case error:
		return x.Error(), nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer, reflect.Interface:
		// %v could walk a cyclic graph.
		return fmt.Sprintf("<%T>", v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func (s *serializer) placeholder(v any, reason string) string {
	s.truncated++

	if s.opts.OnFallback != nil {
		s.opts.OnFallback(fmt.Sprintf("%T", v), reason)
	}

	return fmt.Sprintf("<%s %T>", reason, v)
}

func primitive(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return f, true
	case reflect.String:
		return rv.String(), true
	}

	return nil, false
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}

	return n.String()
}

func bytesString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	return base64.StdEncoding.EncodeToString(b)
}

func keyString(k reflect.Value) string {
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}

	if k.Kind() == reflect.String {
		return k.String()
	}

	if k.CanInterface() {
		if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
			if text, err := tm.MarshalText(); err == nil {
				return string(text)
			}
		}
	}

	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	}

	return fmt.Sprintf("%v", k.Interface())
}

func fieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = f.Name
	if tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, opt := range parts[1:] {
			if strings.TrimSpace(opt) == "omitempty" {
				omitEmpty = true
			}
		}
	}

	return name, omitEmpty, false
}

func isCallable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Interface:
		if v.IsNil() {
			return false
		}
		return isCallable(v.Elem())
	}

	return false
}
