package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/hupe1980/agentmcp/canonical"
)

// Validator checks and converts a single value.
type Validator interface {
	// Check validates v located at path and returns its converted form.
	Check(path string, v any) (any, []Issue)

	// Describe returns the JSON Schema fragment for the value.
	Describe() *canonical.Map
}

// Field declares a named parameter.
type Field struct {
	Name        string
	Description string
	Validator   Validator
}

// FieldSchema is a Schema built from a list of fields. Unknown fields in the
// input are ignored.
type FieldSchema struct {
	fields []Field
	raw    json.RawMessage
}

var _ Schema = (*FieldSchema)(nil)

// Fields creates a schema from the given fields. A field without a validator
// accepts any value.
func Fields(fields ...Field) *FieldSchema {
	fs := &FieldSchema{fields: make([]Field, len(fields))}
	for i, f := range fields {
		if f.Validator == nil {
			f.Validator = Any()
		}
		fs.fields[i] = f
	}

	raw, err := json.Marshal(objectSchema(fs.fields))
	if err != nil {
		raw = json.RawMessage(`{"type":"object"}`)
	}
	fs.raw = raw

	return fs
}

// FieldNames returns the declared field names in declaration order.
func (s *FieldSchema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}

	return names
}

// Validate checks every declared field of params.
func (s *FieldSchema) Validate(params map[string]any) (map[string]any, []Issue) {
	return checkFields("", s.fields, params)
}

// JSONSchema returns the JSON Schema describing the fields.
func (s *FieldSchema) JSONSchema() json.RawMessage { return s.raw }

func checkFields(prefix string, fields []Field, params map[string]any) (map[string]any, []Issue) {
	out := make(map[string]any, len(fields))

	var issues []Issue
	for _, f := range fields {
		path := joinPath(prefix, f.Name)

		v, present := params[f.Name]
		if !present {
			if opt, ok := f.Validator.(*optional); ok {
				out[f.Name] = opt.def
				continue
			}
			issues = append(issues, Issue{Path: path, Reason: "field required"})
			continue
		}

		converted, fieldIssues := f.Validator.Check(path, v)
		if len(fieldIssues) > 0 {
			issues = append(issues, fieldIssues...)
			continue
		}
		out[f.Name] = converted
	}

	return out, issues
}

func objectSchema(fields []Field) *canonical.Map {
	props := canonical.NewMap()
	required := []string{}

	for _, f := range fields {
		desc := f.Validator.Describe()
		if f.Description != "" {
			desc.Set("description", f.Description)
		}
		props.Set(f.Name, desc)

		if _, ok := f.Validator.(*optional); !ok {
			required = append(required, f.Name)
		}
	}

	m := canonical.MapOf("type", "object", "properties", props)
	if len(required) > 0 {
		m.Set("required", required)
	}

	return m
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}

type stringValidator struct{}

// String accepts JSON strings.
func String() Validator { return stringValidator{} }

func (stringValidator) Check(path string, v any) (any, []Issue) {
	s, ok := v.(string)
	if !ok {
		return nil, typeIssue(path, "string", v)
	}

	return s, nil
}

func (stringValidator) Describe() *canonical.Map { return canonical.MapOf("type", "string") }

type numberValidator struct{}

// Number accepts any JSON number and converts it to float64.
func Number() Validator { return numberValidator{} }

func (numberValidator) Check(path string, v any) (any, []Issue) {
	f, ok := toFloat(v)
	if !ok {
		return nil, typeIssue(path, "number", v)
	}

	return f, nil
}

func (numberValidator) Describe() *canonical.Map { return canonical.MapOf("type", "number") }

type integerValidator struct{}

// Integer accepts integral JSON numbers and converts them to int64.
func Integer() Validator { return integerValidator{} }

func (integerValidator) Check(path string, v any) (any, []Issue) {
	f, ok := toFloat(v)
	if !ok {
		return nil, typeIssue(path, "integer", v)
	}

	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if rv.Uint() <= math.MaxInt64 {
				return int64(rv.Uint()), nil //nolint:gosec // bounds checked
			}
		}
	}

	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, []Issue{{Path: path, Reason: fmt.Sprintf("expected integer, got %v", f)}}
	}

	return int64(f), nil
}

func (integerValidator) Describe() *canonical.Map { return canonical.MapOf("type", "integer") }

type booleanValidator struct{}

// Boolean accepts JSON booleans.
func Boolean() Validator { return booleanValidator{} }

func (booleanValidator) Check(path string, v any) (any, []Issue) {
	b, ok := v.(bool)
	if !ok {
		return nil, typeIssue(path, "boolean", v)
	}

	return b, nil
}

func (booleanValidator) Describe() *canonical.Map { return canonical.MapOf("type", "boolean") }

type anyValidator struct{}

// Any accepts every value unchanged.
func Any() Validator { return anyValidator{} }

func (anyValidator) Check(_ string, v any) (any, []Issue) { return v, nil }

func (anyValidator) Describe() *canonical.Map { return canonical.NewMap() }

type enumValidator struct {
	values []string
}

// Enum accepts one of the given strings.
func Enum(values ...string) Validator { return enumValidator{values: values} }

func (e enumValidator) Check(path string, v any) (any, []Issue) {
	s, ok := v.(string)
	if !ok {
		return nil, typeIssue(path, "string", v)
	}

	for _, allowed := range e.values {
		if s == allowed {
			return s, nil
		}
	}

	return nil, []Issue{{Path: path, Reason: fmt.Sprintf("value must be one of %s", strings.Join(e.values, ", "))}}
}

func (e enumValidator) Describe() *canonical.Map {
	return canonical.MapOf("type", "string", "enum", append([]string(nil), e.values...))
}

type arrayValidator struct {
	elem Validator
}

// Array accepts a list whose elements all satisfy elem.
func Array(elem Validator) Validator {
	if elem == nil {
		elem = Any()
	}

	return arrayValidator{elem: elem}
}

func (a arrayValidator) Check(path string, v any) (any, []Issue) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, typeIssue(path, "array", v)
	}

	out := make([]any, rv.Len())

	var issues []Issue
	for i := 0; i < rv.Len(); i++ {
		elem, elemIssues := a.elem.Check(fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface())
		issues = append(issues, elemIssues...)
		out[i] = elem
	}

	if len(issues) > 0 {
		return nil, issues
	}

	return out, nil
}

func (a arrayValidator) Describe() *canonical.Map {
	return canonical.MapOf("type", "array", "items", a.elem.Describe())
}

type objectValidator struct {
	fields []Field
}

// Object accepts a nested object with the given fields.
func Object(fields ...Field) Validator {
	for i := range fields {
		if fields[i].Validator == nil {
			fields[i].Validator = Any()
		}
	}

	return objectValidator{fields: fields}
}

func (o objectValidator) Check(path string, v any) (any, []Issue) {
	obj, ok := v.(map[string]any)
	if !ok {
		if m, isMap := v.(*canonical.Map); isMap {
			obj, ok = canonical.ToPlain(m).(map[string]any)
		}
	}

	if !ok {
		return nil, typeIssue(path, "object", v)
	}

	out, issues := checkFields(path, o.fields, obj)
	if len(issues) > 0 {
		return nil, issues
	}

	return out, nil
}

func (o objectValidator) Describe() *canonical.Map { return objectSchema(o.fields) }

type optional struct {
	inner Validator
	def   any
}

// Optional marks a field as not required. Absent fields are set to nil and an
// explicit null is accepted.
func Optional(inner Validator) Validator { return &optional{inner: inner} }

// Default marks a field as not required with a default value used when the
// field is absent.
func Default(inner Validator, def any) Validator { return &optional{inner: inner, def: def} }

func (o *optional) Check(path string, v any) (any, []Issue) {
	if v == nil {
		return o.def, nil
	}

	return o.inner.Check(path, v)
}

func (o *optional) Describe() *canonical.Map {
	d := o.inner.Describe()
	if o.def != nil {
		d.Set("default", o.def)
	}

	return d
}

func toFloat(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	}

	return 0, false
}

func typeIssue(path, want string, got any) []Issue {
	return []Issue{{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, jsonType(got))}}
}

// jsonType names the JSON type of a decoded value.
func jsonType(v any) string {
	if v == nil {
		return "null"
	}

	switch v.(type) {
	case json.Number:
		return "number"
	case *canonical.Map:
		return "object"
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}

	return fmt.Sprintf("%T", v)
}
