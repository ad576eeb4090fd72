// Package tool turns agents into uniform, schema validated tools.
//
// An Adapter binds a name, a description, a parameter schema and an agent.
// Each call is validated against the schema, dispatched to whichever
// capability the agent exposes (inside an output isolation scope), serialized
// into a canonical value and normalized into a core.ToolResult. Failures at
// any stage are classified into one of three kinds (VALIDATION_ERROR,
// EXECUTION_ERROR, SERIALIZATION_ERROR) and returned as a result with IsError
// set; Invoke itself never fails.
package tool

import (
	"context"

	"github.com/hupe1980/agentmcp/core"
	"github.com/hupe1980/agentmcp/schema"
)

// Tool defines an endpoint that can be exposed to MCP clients.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Declare a schema for their parameters
//   - Report failures as results with IsError set rather than panicking
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is shown to clients to help them decide when and how to use the tool.
	Description() string

	// Schema returns the declared parameters.
	Schema() schema.Schema

	// Invoke runs the tool with untyped parameters: nil, an object keyed by
	// field name, or a positional list of values.
	Invoke(ctx context.Context, raw any) *core.ToolResult
}
