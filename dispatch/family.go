package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentmcp/schema"
)

// Strategy calls one capability with one projection of the parameters.
type Strategy struct {
	Capability Capability
	Projection Projection
}

// Apply invokes the capability on agent. applicable is false, with no call
// made, when the agent lacks the capability or the projection does not apply.
func (s Strategy) Apply(ctx context.Context, agent any, params *schema.Params) (value any, applicable bool, err error) {
	call, ok := bind(s.Capability, agent)
	if !ok {
		return nil, false, nil
	}

	project := s.Projection
	if project == nil {
		project = Mapping
	}

	input, ok := project(params)
	if !ok {
		return nil, false, nil
	}

	value, err = call(ctx, input)

	return value, true, err
}

// Family is an ordered set of strategies for one kind of agent.
type Family struct {
	Name       string
	Strategies []Strategy

	// Unwrap post-processes a successful result. Optional.
	Unwrap func(v any) any
}

// Capabilities returns the capability names of the family in priority order.
func (f *Family) Capabilities() []string {
	names := make([]string, len(f.Strategies))
	for i, s := range f.Strategies {
		names[i] = string(s.Capability)
	}

	return names
}

// Dispatch invokes agent with the first applicable strategy. Agent errors and
// panics are returned as *ExecutionError.
func (f *Family) Dispatch(ctx context.Context, agent any, params *schema.Params) (out any, err error) {
	var current Capability

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &ExecutionError{Family: f.Name, Capability: current, Cause: &PanicError{Value: r}}
		}
	}()

	if agent != nil {
		for _, s := range f.Strategies {
			current = s.Capability

			v, applicable, callErr := s.Apply(ctx, agent, params)
			if !applicable {
				continue
			}

			if callErr != nil {
				return nil, &ExecutionError{Family: f.Name, Capability: s.Capability, Cause: callErr}
			}

			if f.Unwrap != nil {
				v = f.Unwrap(v)
			}

			return v, nil
		}
	}

	return nil, &ExecutionError{
		Family: f.Name,
		Cause: fmt.Errorf("%w: %T exposes none of [%s]",
			ErrUnsupportedAgent, agent, strings.Join(f.Capabilities(), ", ")),
	}
}
