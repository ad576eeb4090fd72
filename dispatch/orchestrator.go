package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// InputLister is implemented by run results that can seed another run, such
// as a conversation transcript.
type InputLister interface {
	ToInputList() []any
}

// Hook runs before or after the main agent of an Orchestrator.
type Hook func(ctx context.Context, v any) (any, error)

// Orchestrator always runs Main, optionally surrounded by hooks. It exposes
// the run capability and is meant for the openai family, whose final output
// is taken from the value After returns.
//
// A non-nil result of Before replaces Main's input; when it implements
// InputLister, its input list is used instead. After post-processes Main's
// result.
type Orchestrator struct {
	Main   Runner
	Before Hook
	After  Hook
}

var _ Runner = (*Orchestrator)(nil)

// Run implements Runner.
func (o *Orchestrator) Run(ctx context.Context, input any) (any, error) {
	if o.Main == nil {
		return nil, errors.New("orchestrator has no main agent")
	}

	if o.Before != nil {
		pre, err := o.Before(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("before hook: %w", err)
		}

		if l, ok := pre.(InputLister); ok {
			input = l.ToInputList()
		} else if pre != nil {
			input = pre
		}
	}

	result, err := o.Main.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	if o.After != nil {
		result, err = o.After(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("after hook: %w", err)
		}
	}

	return result, nil
}
