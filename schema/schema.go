package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/agentmcp/canonical"
)

// Schema declares the parameters accepted by a tool.
type Schema interface {
	// FieldNames returns the declared field names in declaration order.
	FieldNames() []string

	// Validate checks a parameter object. It returns the validated values,
	// with every declared field present, or the list of violations.
	Validate(params map[string]any) (map[string]any, []Issue)

	// JSONSchema returns the JSON Schema advertised to clients.
	JSONSchema() json.RawMessage
}

// Issue is a single violated constraint.
type Issue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// String renders the issue as "fieldPath: reason".
func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "$"
	}

	return path + ": " + i.Reason
}

// ValidationError is returned by Parse when the input does not satisfy the schema.
type ValidationError struct {
	Issues []Issue
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Strings(), "; ")
}

// Strings returns the issues rendered as "fieldPath: reason".
func (e *ValidationError) Strings() []string {
	out := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		out[i] = issue.String()
	}

	return out
}

// Params holds validated parameters in declared field order.
type Params struct {
	names  []string
	values map[string]any
}

// NewParams builds Params from names (in order) and their values.
func NewParams(names []string, values map[string]any) *Params {
	ordered := append([]string(nil), names...)

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}

	extra := make([]string, 0)
	for k := range values {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)

	return &Params{names: append(ordered, extra...), values: values}
}

// Names returns parameter names in order.
func (p *Params) Names() []string { return append([]string(nil), p.names...) }

// Len returns the number of parameters.
func (p *Params) Len() int { return len(p.names) }

// Get returns a single parameter.
func (p *Params) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Map returns a copy of the parameters keyed by name.
func (p *Params) Map() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}

	return out
}

// Values returns the parameter values in order.
func (p *Params) Values() []any {
	out := make([]any, len(p.names))
	for i, n := range p.names {
		out[i] = p.values[n]
	}

	return out
}

// Decode copies the parameters into a typed Go value (struct pointer or map).
// Field names are matched through `json` tags.
func (p *Params) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(p.values); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	return nil
}

// Parse validates raw parameters against s.
//
// raw may be nil (no parameters), an object keyed by field name, or a
// positional list whose N-th value binds to the N-th declared field.
func Parse(s Schema, raw any) (*Params, error) {
	obj, issues := bind(s.FieldNames(), raw)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	values, issues := s.Validate(obj)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	return NewParams(s.FieldNames(), values), nil
}

func bind(names []string, raw any) (map[string]any, []Issue) {
	switch r := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return r, nil
	case *canonical.Map:
		obj, _ := canonical.ToPlain(r).(map[string]any)
		return obj, nil
	case []any:
		return bindPositional(names, r)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = iter.Value().Interface()
		}
		return obj, nil
	case reflect.Slice, reflect.Array:
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return bindPositional(names, values)
	}

	return nil, []Issue{{Path: "", Reason: fmt.Sprintf("expected an object or a list of positional arguments, got %s", jsonType(raw))}}
}

func bindPositional(names []string, values []any) (map[string]any, []Issue) {
	obj := make(map[string]any, len(values))

	var issues []Issue
	for i, v := range values {
		if i >= len(names) {
			issues = append(issues, Issue{
				Path:   fmt.Sprintf("[%d]", i),
				Reason: fmt.Sprintf("unexpected positional argument, schema declares %d field(s)", len(names)),
			})
			continue
		}
		obj[names[i]] = v
	}

	return obj, issues
}
