package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const resourceURL = "schema.json"

var printer = message.NewPrinter(language.English)

// JSONSchema is a Schema backed by a compiled JSON Schema document describing
// an object. Declared field order is the order of the document's
// "properties" keys.
type JSONSchema struct {
	raw      json.RawMessage
	compiled *jsonschema.Schema
	fields   []string
	numbers  *numberShape
	defaults map[string]any
}

var _ Schema = (*JSONSchema)(nil)

// FromJSON compiles a JSON Schema document.
func FromJSON(doc []byte) (*JSONSchema, error) {
	if !gjson.ValidBytes(doc) {
		return nil, errors.New("schema is not valid JSON")
	}

	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, errors.New("schema must be a JSON object")
	}

	if t := root.Get("type"); t.Exists() && t.String() != "object" {
		return nil, fmt.Errorf("schema must describe an object, got type %q", t.String())
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	s := &JSONSchema{
		raw:      append(json.RawMessage(nil), doc...),
		compiled: compiled,
		numbers:  shapeOf(root),
		defaults: map[string]any{},
	}

	root.Get("properties").ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		s.fields = append(s.fields, name)

		if d := v.Get("default"); d.Exists() {
			if def, err := jsonschema.UnmarshalJSON(strings.NewReader(d.Raw)); err == nil {
				s.defaults[name] = plainNumbers(def, s.numbers.property(name))
			}
		}

		return true
	})

	return s, nil
}

// FromValue compiles a JSON Schema given as a Go value, such as a
// map[string]any or a *canonical.Map. Use a *canonical.Map or FromJSON when
// field order matters.
func FromValue(v any) (*JSONSchema, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return FromJSON(doc)
}

// FieldNames returns the names of the schema's properties in document order.
func (s *JSONSchema) FieldNames() []string { return append([]string(nil), s.fields...) }

// JSONSchema returns the original schema document.
func (s *JSONSchema) JSONSchema() json.RawMessage { return s.raw }

// Validate checks params against the compiled schema.
func (s *JSONSchema) Validate(params map[string]any) (map[string]any, []Issue) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, []Issue{{Path: "", Reason: fmt.Sprintf("parameters are not JSON encodable: %v", err)}}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, []Issue{{Path: "", Reason: err.Error()}}
	}

	if err := s.compiled.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, collectIssues(verr)
		}

		return nil, []Issue{{Path: "", Reason: err.Error()}}
	}

	obj, _ := inst.(map[string]any)

	out := make(map[string]any, len(obj)+len(s.fields))
	for k, v := range obj {
		out[k] = plainNumbers(v, s.numbers.property(k))
	}

	for _, name := range s.fields {
		if _, ok := out[name]; !ok {
			out[name] = s.defaults[name]
		}
	}

	return out, nil
}

func collectIssues(verr *jsonschema.ValidationError) []Issue {
	var issues []Issue

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}

		path := instancePath(e.InstanceLocation)

		if req, ok := e.ErrorKind.(*kind.Required); ok {
			for _, missing := range req.Missing {
				issues = append(issues, Issue{Path: joinPath(path, missing), Reason: "field required"})
			}
			return
		}

		issues = append(issues, Issue{Path: path, Reason: e.ErrorKind.LocalizedString(printer)})
	}
	walk(verr)

	return issues
}

// instancePath renders a JSON pointer location as "a.b[2].c".
func instancePath(loc []string) string {
	var sb strings.Builder
	for _, seg := range loc {
		if _, err := strconv.Atoi(seg); err == nil {
			sb.WriteString("[" + seg + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg)
	}

	return sb.String()
}

// numberShape mirrors the parts of a schema that declare integers, so that
// numbers in validated parameters become int64 there and float64 elsewhere.
// References are not followed.
type numberShape struct {
	integer bool
	props   map[string]*numberShape
	items   *numberShape
}

func shapeOf(r gjson.Result) *numberShape {
	if !r.IsObject() {
		return nil
	}

	sh := &numberShape{integer: declaresInteger(r.Get("type"))}

	if props := r.Get("properties"); props.IsObject() {
		sh.props = map[string]*numberShape{}
		props.ForEach(func(k, v gjson.Result) bool {
			if child := shapeOf(v); child != nil {
				sh.props[k.String()] = child
			}
			return true
		})
	}

	sh.items = shapeOf(r.Get("items"))

	return sh
}

// declaresInteger reports whether a "type" keyword allows integers but not
// arbitrary numbers.
func declaresInteger(t gjson.Result) bool {
	if !t.IsArray() {
		return t.String() == "integer"
	}

	integer := false
	for _, e := range t.Array() {
		switch e.String() {
		case "integer":
			integer = true
		case "number":
			return false
		}
	}

	return integer
}

func (sh *numberShape) property(name string) *numberShape {
	if sh == nil {
		return nil
	}
	return sh.props[name]
}

func (sh *numberShape) element() *numberShape {
	if sh == nil {
		return nil
	}
	return sh.items
}

// plainNumbers replaces json.Number values with int64 where sh declares an
// integer and float64 otherwise.
func plainNumbers(v any, sh *numberShape) any {
	switch x := v.(type) {
	case json.Number:
		if sh != nil && sh.integer {
			if i, err := x.Int64(); err == nil {
				return i
			}
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = plainNumbers(e, sh.property(k))
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = plainNumbers(e, sh.element())
		}
		return x
	default:
		return v
	}
}
