// Package agentmcp exposes heterogeneous agents as Model Context Protocol
// tools. Most applications interact with this package by:
//  1. Creating an AgentMCP via New() (optionally overriding logger, observer
//     and diagnostic channel)
//  2. Registering one or more agents, functions or tools
//  3. Serving them over stdio, SSE or streamable HTTP (Serve)
//
// Every call is validated against the tool's schema, dispatched to whichever
// capability the agent exposes, isolated from the protocol stream and
// normalized into a uniform result. Failures never escape as protocol errors;
// they come back as results with isError set.
package agentmcp

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentmcp/core"
	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/observability"
	"github.com/hupe1980/agentmcp/outputguard"
	"github.com/hupe1980/agentmcp/registry"
	"github.com/hupe1980/agentmcp/schema"
	"github.com/hupe1980/agentmcp/server"
	"github.com/hupe1980/agentmcp/tool"
)

// ErrFrozen is returned when registering after the registry was built.
var ErrFrozen = errors.New("registry is frozen")

// Options configures the AgentMCP instance.
type Options struct {
	// Name and Version are announced to MCP clients.
	Name    string
	Version string

	// Instructions are sent to clients during initialization.
	Instructions string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Observer records per-call metrics and spans (defaults to NoOp).
	Observer observability.Observer

	// Channel is the diagnostic channel (defaults to outputguard.Default).
	Channel *outputguard.Channel
}

// AgentMCP collects tools and serves them. Registration happens before the
// first call to Registry, Server, Invoke or Serve; afterwards the tool set is
// frozen.
type AgentMCP struct {
	opts Options

	mu      sync.Mutex
	builder *registry.Builder
	reg     *registry.Registry
}

// New creates a new AgentMCP instance.
func New(optFns ...func(o *Options)) *AgentMCP {
	opts := Options{
		Name:     server.DefaultName,
		Version:  server.DefaultVersion,
		Logger:   logging.NoOpLogger{},
		Observer: observability.NoOp{},
		Channel:  outputguard.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &AgentMCP{opts: opts, builder: registry.NewBuilder()}
}

// Register exposes agent as a tool. The instance's logger, observer and
// channel apply unless optFns override them.
func (m *AgentMCP) Register(name, description string, s schema.Schema, agent any, optFns ...func(o *tool.Options)) error {
	a, err := tool.NewAdapter(name, description, s, agent, append([]func(o *tool.Options){m.toolDefaults}, optFns...)...)
	if err != nil {
		return err
	}

	return m.RegisterTool(a)
}

// RegisterFunction exposes a plain Go function as a tool.
func (m *AgentMCP) RegisterFunction(
	name, description string,
	s schema.Schema,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *tool.Options),
) error {
	a, err := tool.NewFunctionTool(name, description, s, fn, append([]func(o *tool.Options){m.toolDefaults}, optFns...)...)
	if err != nil {
		return err
	}

	return m.RegisterTool(a)
}

// RegisterTool adds a ready-made tool.
func (m *AgentMCP) RegisterTool(t tool.Tool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reg != nil {
		return ErrFrozen
	}

	m.builder.Add(t)

	return nil
}

func (m *AgentMCP) toolDefaults(o *tool.Options) {
	o.Logger = m.opts.Logger
	o.Observer = m.opts.Observer
	o.Channel = m.opts.Channel
}

// Registry builds (once) and returns the frozen tool registry.
func (m *AgentMCP) Registry() (*registry.Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reg != nil {
		return m.reg, nil
	}

	reg, err := m.builder.Build()
	if err != nil {
		return nil, err
	}

	m.reg = reg

	return reg, nil
}

// Invoke calls a registered tool directly, without a transport.
func (m *AgentMCP) Invoke(ctx context.Context, name string, raw any) (*core.ToolResult, error) {
	reg, err := m.Registry()
	if err != nil {
		return nil, err
	}

	return reg.Invoke(ctx, name, raw)
}

// Server returns an MCP server publishing the registry.
func (m *AgentMCP) Server() (*server.Server, error) {
	reg, err := m.Registry()
	if err != nil {
		return nil, err
	}

	return server.New(reg, func(o *server.Options) {
		o.Name = m.opts.Name
		o.Version = m.opts.Version
		o.Instructions = m.opts.Instructions
		o.Logger = m.opts.Logger
		o.Channel = m.opts.Channel
	}), nil
}

// Serve publishes the registered tools until ctx is cancelled.
func (m *AgentMCP) Serve(ctx context.Context, opts server.ServeOptions) error {
	srv, err := m.Server()
	if err != nil {
		return err
	}

	return srv.Serve(ctx, opts)
}
