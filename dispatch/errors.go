package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnsupportedAgent is returned when an agent exposes none of the
// capabilities its family recognizes.
var ErrUnsupportedAgent = errors.New("unsupported agent")

// ExecutionError reports a failed agent invocation.
type ExecutionError struct {
	Family     string
	Capability Capability // empty when no capability was found
	Cause      error
}

func (e *ExecutionError) Error() string {
	if e.Capability == "" {
		return e.Cause.Error()
	}

	return fmt.Sprintf("%s failed: %v", e.Capability, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error { return e.Cause }

// PanicError carries a value recovered from a panicking agent.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "agent panicked: " + err.Error()
	}

	return fmt.Sprintf("agent panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
