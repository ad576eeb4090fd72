package core

import "strings"

// TextContent is a single text block of a ToolResult. Type is always "text".
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextContent returns a text block holding s.
func NewTextContent(s string) TextContent {
	return TextContent{Type: "text", Text: s}
}

// ResourceLink references a resource the caller may fetch separately.
type ResourceLink struct {
	Name        string `json:"name" mapstructure:"name"`
	URI         string `json:"uri" mapstructure:"uri"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	MimeType    string `json:"mimeType,omitempty" mapstructure:"mimeType"`
}

// ToolResult is the uniform response envelope returned by every exposed endpoint.
//
// Content is never empty. StructuredContent is set only when the underlying value
// is a mapping or a sequence. IsError is true iff the call failed.
type ToolResult struct {
	Content           []TextContent  `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	ResourceLinks     []ResourceLink `json:"resourceLinks,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// NewTextResult builds a successful single-block result.
func NewTextResult(text string) *ToolResult {
	return &ToolResult{Content: []TextContent{NewTextContent(text)}}
}

// NewErrorResult builds a failed single-block result.
func NewErrorResult(text string) *ToolResult {
	return &ToolResult{Content: []TextContent{NewTextContent(text)}, IsError: true}
}

// Text concatenates the text of all content blocks separated by newlines.
func (r *ToolResult) Text() string {
	if r == nil {
		return ""
	}

	texts := make([]string, len(r.Content))
	for i, c := range r.Content {
		texts[i] = c.Text
	}

	return strings.Join(texts, "\n")
}
