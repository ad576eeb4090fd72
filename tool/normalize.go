package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/agentmcp/canonical"
	"github.com/hupe1980/agentmcp/core"
)

// preShaped mirrors the ToolResult fields of a mapping that already has the
// envelope shape.
type preShaped struct {
	Content       []core.TextContent  `mapstructure:"content"`
	ResourceLinks []core.ResourceLink `mapstructure:"resourceLinks"`
	IsError       bool                `mapstructure:"isError"`
}

// Normalize wraps a canonical value into a ToolResult.
//
//   - a mapping that already carries a valid "content" list is passed through
//   - a string becomes a single text block
//   - a mapping or sequence becomes an indented JSON text block, and is also
//     returned as StructuredContent
//   - any other primitive becomes its JSON text
//
// A "resourceLinks" list in a mapping is lifted into ToolResult.ResourceLinks.
// Values that are not canonical are serialized first.
func Normalize(v any) (*core.ToolResult, error) {
	switch x := v.(type) {
	case string:
		return core.NewTextResult(x), nil
	case *canonical.Map:
		if res, ok := passThrough(x); ok {
			return res, nil
		}

		text, err := render(x)
		if err != nil {
			return nil, err
		}

		return &core.ToolResult{
			Content:           []core.TextContent{core.NewTextContent(text)},
			StructuredContent: x,
			ResourceLinks:     resourceLinks(x),
		}, nil
	case []any:
		text, err := render(x)
		if err != nil {
			return nil, err
		}

		return &core.ToolResult{
			Content:           []core.TextContent{core.NewTextContent(text)},
			StructuredContent: x,
		}, nil
	case nil, bool, int64, uint64, float64:
		text, err := render(x)
		if err != nil {
			return nil, err
		}

		return core.NewTextResult(text), nil
	}

	cv, err := canonical.Serialize(v)
	if err != nil {
		return nil, err
	}

	return Normalize(cv)
}

func passThrough(m *canonical.Map) (*core.ToolResult, bool) {
	if _, ok := m.Get("content"); !ok {
		return nil, false
	}

	var shaped preShaped
	if err := mapstructure.Decode(canonical.ToPlain(m), &shaped); err != nil {
		return nil, false
	}

	if len(shaped.Content) == 0 {
		return nil, false
	}

	for _, c := range shaped.Content {
		if c.Type != "text" {
			return nil, false
		}
	}

	res := &core.ToolResult{
		Content:       shaped.Content,
		ResourceLinks: shaped.ResourceLinks,
		IsError:       shaped.IsError,
	}

	if sc, ok := m.Get("structuredContent"); ok {
		res.StructuredContent = sc
	}

	return res, true
}

func resourceLinks(m *canonical.Map) []core.ResourceLink {
	raw, ok := m.Get("resourceLinks")
	if !ok {
		return nil
	}

	var links []core.ResourceLink
	if err := mapstructure.Decode(canonical.ToPlain(raw), &links); err != nil {
		return nil
	}

	out := links[:0]
	for _, l := range links {
		if l.URI != "" {
			out = append(out, l)
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// render returns the indented JSON text of a canonical value.
func render(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return "", &canonical.SerializationError{Type: fmt.Sprintf("%T", v), Cause: err}
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
