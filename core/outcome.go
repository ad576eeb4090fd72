package core

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	// OutcomeSuccess carries a canonical value.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeValidationFailure carries the per-field issue list.
	OutcomeValidationFailure
	// OutcomeExecutionFailure carries the agent-side cause.
	OutcomeExecutionFailure
	// OutcomeSerializationFailure carries an unrecoverable conversion cause.
	OutcomeSerializationFailure
)

// String returns the outcome label used in logs and metrics.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailure:
		return "validation_failure"
	case OutcomeExecutionFailure:
		return "execution_failure"
	case OutcomeSerializationFailure:
		return "serialization_failure"
	default:
		return "unknown"
	}
}

// Outcome is the per-call result of running an endpoint before it is rendered
// into a ToolResult. It is created per call and never retained.
type Outcome struct {
	Kind   OutcomeKind
	Value  any      // canonical value, set for OutcomeSuccess
	Issues []string // "fieldPath: reason", set for OutcomeValidationFailure
	Cause  error    // set for every failure variant
}

// Success wraps a canonical value.
func Success(v any) Outcome { return Outcome{Kind: OutcomeSuccess, Value: v} }

// ValidationFailure records the issues that rejected the input.
func ValidationFailure(cause error, issues []string) Outcome {
	return Outcome{Kind: OutcomeValidationFailure, Issues: issues, Cause: cause}
}

// ExecutionFailure records an agent-side failure.
func ExecutionFailure(cause error) Outcome {
	return Outcome{Kind: OutcomeExecutionFailure, Cause: cause}
}

// SerializationFailure records a conversion failure that survived the string fallback.
func SerializationFailure(cause error) Outcome {
	return Outcome{Kind: OutcomeSerializationFailure, Cause: cause}
}

// Failed reports whether the outcome is any failure variant.
func (o Outcome) Failed() bool { return o.Kind != OutcomeSuccess }
