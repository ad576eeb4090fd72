// Package server publishes a tool registry over the Model Context Protocol.
//
// Every registered tool becomes one MCP tool whose input schema is the tool's
// JSON Schema. Calls are forwarded to the tool untouched and the uniform
// result is translated into an MCP CallToolResult. Tool failures are reported
// in-band with isError set; the handler never returns a protocol error for
// them.
package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/agentmcp/core"
	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/outputguard"
	"github.com/hupe1980/agentmcp/registry"
	"github.com/hupe1980/agentmcp/tool"
)

const (
	// DefaultName is the server name announced during initialization.
	DefaultName = "agentmcp"

	// DefaultVersion is the server version announced during initialization.
	DefaultVersion = "0.1.0"
)

// Options configures a Server.
type Options struct {
	Name         string
	Version      string
	Instructions string

	// Logger receives lifecycle messages. Defaults to NoOpLogger.
	Logger logging.Logger

	// Channel receives stray process output when serving over stdio.
	// Defaults to outputguard.Default.
	Channel *outputguard.Channel
}

// Server is an MCP server exposing the tools of a registry.
type Server struct {
	mcp      *mcpserver.MCPServer
	registry *registry.Registry
	logger   logging.Logger
	channel  *outputguard.Channel
}

// New creates a Server and registers every tool of reg.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Server {
	opts := Options{
		Name:    DefaultName,
		Version: DefaultVersion,
		Logger:  logging.NoOpLogger{},
		Channel: outputguard.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	serverOpts := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	}
	if opts.Instructions != "" {
		serverOpts = append(serverOpts, mcpserver.WithInstructions(opts.Instructions))
	}

	s := &Server{
		mcp:      mcpserver.NewMCPServer(opts.Name, opts.Version, serverOpts...),
		registry: reg,
		logger:   opts.Logger,
		channel:  opts.Channel,
	}

	for _, t := range reg.Tools() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.Schema().JSONSchema()), Handler(t))
	}

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcp }

// Registry returns the published registry.
func (s *Server) Registry() *registry.Registry { return s.registry }

// Handler adapts t to an mcp-go tool handler. Arguments are passed through
// as sent, so positional argument lists reach the tool unchanged.
func Handler(t tool.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return ToCallToolResult(t.Invoke(ctx, request.Params.Arguments)), nil
	}
}

// ToCallToolResult translates a ToolResult into its MCP form. Resource links
// follow the text blocks.
func ToCallToolResult(r *core.ToolResult) *mcp.CallToolResult {
	if r == nil {
		return mcp.NewToolResultError("tool returned no result")
	}

	out := &mcp.CallToolResult{
		Content:           make([]mcp.Content, 0, len(r.Content)+len(r.ResourceLinks)),
		StructuredContent: r.StructuredContent,
		IsError:           r.IsError,
	}

	for _, c := range r.Content {
		out.Content = append(out.Content, mcp.NewTextContent(c.Text))
	}

	for _, l := range r.ResourceLinks {
		out.Content = append(out.Content, mcp.NewResourceLink(l.URI, l.Name, l.Description, l.MimeType))
	}

	return out
}
