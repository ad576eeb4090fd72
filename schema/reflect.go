package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// For builds a JSONSchema from the Go struct type T.
//
// Field names come from `json` tags. A field is required unless it is tagged
// omitempty. Descriptions, enums, defaults and numeric bounds are read from
// `jsonschema` tags:
//
//	type Args struct {
//	    Query string `json:"query" jsonschema:"description=Search query"`
//	    Limit int    `json:"limit,omitempty" jsonschema:"default=10,minimum=1"`
//	}
func For[T any]() (*JSONSchema, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}

	s := reflector.Reflect(new(T))
	s.Version = ""
	s.ID = ""

	if s.Type != "object" {
		return nil, fmt.Errorf("schema type must be a struct, got %q", s.Type)
	}

	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return FromJSON(doc)
}

// MustFor is like For but panics on error. It is meant for package-level
// tool declarations.
func MustFor[T any]() *JSONSchema {
	s, err := For[T]()
	if err != nil {
		panic(err)
	}

	return s
}
