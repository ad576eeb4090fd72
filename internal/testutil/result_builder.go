package testutil

import "github.com/hupe1980/agentmcp/core"

// ResultBuilder provides a fluent helper for constructing expected tool results.
// Example:
//
//	want := NewResultBuilder().Text("pong").Build()
type ResultBuilder struct {
	res core.ToolResult
}

// NewResultBuilder creates an empty builder.
func NewResultBuilder() *ResultBuilder { return &ResultBuilder{} }

// Text appends a text block (chainable).
func (b *ResultBuilder) Text(t string) *ResultBuilder {
	b.res.Content = append(b.res.Content, core.NewTextContent(t))
	return b
}

// Structured sets the structured content (chainable).
func (b *ResultBuilder) Structured(v any) *ResultBuilder {
	b.res.StructuredContent = v
	return b
}

// Link appends a resource link (chainable).
func (b *ResultBuilder) Link(name, uri string) *ResultBuilder {
	b.res.ResourceLinks = append(b.res.ResourceLinks, core.ResourceLink{Name: name, URI: uri})
	return b
}

// Error marks the result as failed (chainable).
func (b *ResultBuilder) Error() *ResultBuilder {
	b.res.IsError = true
	return b
}

// Build returns the result.
func (b *ResultBuilder) Build() *core.ToolResult {
	out := b.res
	return &out
}
