package dispatch

import (
	"context"

	"github.com/hupe1980/agentmcp/outputguard"
	"github.com/hupe1980/agentmcp/schema"
)

// Options configures a Dispatcher.
type Options struct {
	// Channel is the diagnostic channel isolated around each call.
	// Defaults to outputguard.Default.
	Channel *outputguard.Channel
}

// Dispatcher runs a Family inside an output isolation scope. It holds no
// per-call state and is safe for concurrent use.
type Dispatcher struct {
	family  *Family
	channel *outputguard.Channel
}

// Result is the outcome of a successful dispatch.
type Result struct {
	Value any

	// Output is what the agent wrote to its scoped writer.
	Output string
}

// NewDispatcher creates a Dispatcher for family.
func NewDispatcher(family *Family, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Channel: outputguard.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{family: family, channel: opts.Channel}
}

// Family returns the dispatcher's family.
func (d *Dispatcher) Family() *Family { return d.family }

// Dispatch invokes agent. The scope opened for the call is closed on every
// exit path. The captured output is returned even when the call fails.
func (d *Dispatcher) Dispatch(ctx context.Context, agent any, params *schema.Params) (Result, error) {
	ctx, scope := d.channel.Isolate(ctx)
	defer scope.Close()

	v, err := d.family.Dispatch(ctx, agent, params)

	return Result{Value: v, Output: scope.Captured()}, err
}
