package tool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentmcp/canonical"
	"github.com/hupe1980/agentmcp/core"
	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/schema"
)

// ErrorKind classifies a failed tool call by the pipeline stage that failed.
type ErrorKind string

const (
	// KindValidation: the parameters did not satisfy the schema.
	KindValidation ErrorKind = "VALIDATION_ERROR"
	// KindExecution: the agent failed, or exposes no recognized capability.
	KindExecution ErrorKind = "EXECUTION_ERROR"
	// KindSerialization: the result could not be converted even by fallback.
	KindSerialization ErrorKind = "SERIALIZATION_ERROR"
)

// Label returns the caller-facing name of the kind.
func (k ErrorKind) Label() string {
	switch k {
	case KindValidation:
		return "Validation error"
	case KindSerialization:
		return "Serialization error"
	default:
		return "Execution error"
	}
}

// Outcome maps the kind onto the matching failure outcome kind.
func (k ErrorKind) Outcome() core.OutcomeKind {
	switch k {
	case KindValidation:
		return core.OutcomeValidationFailure
	case KindSerialization:
		return core.OutcomeSerializationFailure
	default:
		return core.OutcomeExecutionFailure
	}
}

// ToolError is a classified tool failure.
type ToolError struct {
	Tool    string    `json:"tool"`             // Name of the tool that failed
	Kind    ErrorKind `json:"kind"`             // Failure kind
	Message string    `json:"message"`          // Error message
	Issues  []string  `json:"issues,omitempty"` // "fieldPath: reason", validation only
	Cause   error     `json:"-"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Kind, e.Tool, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error { return e.Cause }

// NewToolError creates a ToolError of the given kind.
func NewToolError(tool, message string, kind ErrorKind) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Kind:    kind,
	}
}

// Result renders the error as a failed ToolResult with a single text block.
func (e *ToolError) Result() *core.ToolResult {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s in tool %s: %s", e.Kind.Label(), e.Tool, e.Message)

	for _, issue := range e.Issues {
		sb.WriteString("\n- ")
		sb.WriteString(issue)
	}

	return core.NewErrorResult(sb.String())
}

// Outcome renders the error as a failure Outcome.
func (e *ToolError) Outcome() core.Outcome {
	switch e.Kind {
	case KindValidation:
		return core.ValidationFailure(e, e.Issues)
	case KindSerialization:
		return core.SerializationFailure(e)
	default:
		return core.ExecutionFailure(e)
	}
}

// Classify maps err onto exactly one ErrorKind. It returns nil for a nil error.
// An existing *ToolError keeps its kind. Anything raised while the agent ran is
// an execution error, as are errors of unknown type and context cancellation.
func Classify(tool string, err error) *ToolError {
	if err == nil {
		return nil
	}

	var (
		toolErr *ToolError
		valErr  *schema.ValidationError
		serErr  *canonical.SerializationError
		execErr *dispatch.ExecutionError
	)

	switch {
	case errors.As(err, &toolErr):
		out := *toolErr
		if out.Tool == "" {
			out.Tool = tool
		}
		if out.Kind == "" {
			out.Kind = KindExecution
		}
		return &out
	case errors.As(err, &execErr):
		return &ToolError{Tool: tool, Kind: KindExecution, Message: execErr.Error(), Cause: err}
	case errors.As(err, &valErr):
		return &ToolError{
			Tool:    tool,
			Kind:    KindValidation,
			Message: "invalid parameters",
			Issues:  valErr.Strings(),
			Cause:   err,
		}
	case errors.As(err, &serErr):
		return &ToolError{Tool: tool, Kind: KindSerialization, Message: serErr.Error(), Cause: err}
	default:
		return &ToolError{Tool: tool, Kind: KindExecution, Message: err.Error(), Cause: err}
	}
}
