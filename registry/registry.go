// Package registry holds the set of tools exposed by a server. A Registry is
// built once and never changes afterwards.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/hupe1980/agentmcp/core"
	"github.com/hupe1980/agentmcp/tool"
)

// ErrToolNotFound is returned when a tool name is not registered.
var ErrToolNotFound = errors.New("tool not found")

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// Builder collects tools for a Registry.
type Builder struct {
	tools []tool.Tool
	errs  []error
	names map[string]bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{names: map[string]bool{}}
}

// Add registers tools (chainable). Problems are reported by Build.
func (b *Builder) Add(tools ...tool.Tool) *Builder {
	for _, t := range tools {
		if t == nil {
			b.errs = append(b.errs, errors.New("nil tool"))
			continue
		}

		name := t.Name()

		switch {
		case !validName.MatchString(name):
			b.errs = append(b.errs, fmt.Errorf("invalid tool name %q", name))
		case b.names[name]:
			b.errs = append(b.errs, fmt.Errorf("duplicate tool name %q", name))
		default:
			b.names[name] = true
			b.tools = append(b.tools, t)
		}
	}

	return b
}

// Build returns the immutable Registry or every registration error.
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	r := &Registry{
		tools:  append([]tool.Tool(nil), b.tools...),
		byName: make(map[string]tool.Tool, len(b.tools)),
	}

	for _, t := range r.tools {
		r.byName[t.Name()] = t
	}

	return r, nil
}

// Registry is a read-only, ordered set of tools. It is safe for concurrent use.
type Registry struct {
	tools  []tool.Tool
	byName map[string]tool.Tool
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (tool.Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []tool.Tool {
	return append([]tool.Tool(nil), r.tools...)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}

	return names
}

// Len returns the number of tools.
func (r *Registry) Len() int { return len(r.tools) }

// Invoke calls the named tool. The only error is ErrToolNotFound; tool
// failures are reported in the result.
func (r *Registry) Invoke(ctx context.Context, name string, raw any) (*core.ToolResult, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return t.Invoke(ctx, raw), nil
}
