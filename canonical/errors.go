package canonical

import "fmt"

// SerializationError reports a value that could not be converted even through
// the string fallback. Ordinary fallbacks are not errors.
type SerializationError struct {
	Type  string // Go type of the offending value
	Cause error
}

func (e *SerializationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("cannot serialize value of type %s", e.Type)
	}

	return fmt.Sprintf("cannot serialize value of type %s: %v", e.Type, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *SerializationError) Unwrap() error { return e.Cause }
