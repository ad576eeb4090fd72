package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentmcp/canonical"
	"github.com/hupe1980/agentmcp/core"
	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/observability"
	"github.com/hupe1980/agentmcp/outputguard"
	"github.com/hupe1980/agentmcp/schema"
)

// Options configures an Adapter.
type Options struct {
	// Family selects the dispatch strategies. Defaults to the generic family.
	Family *dispatch.Family

	// Channel is the diagnostic channel isolated around each agent call.
	// Defaults to outputguard.Default.
	Channel *outputguard.Channel

	// Logger receives one entry per call. Defaults to NoOpLogger.
	Logger logging.Logger

	// Observer records metrics and spans. Defaults to observability.NoOp.
	Observer observability.Observer

	// PrivatePrefix marks struct fields skipped by result serialization.
	// Defaults to "_"; set to "" to keep every exported field.
	PrivatePrefix *string
}

// Adapter exposes one agent as a tool. It runs every call through
// validate, dispatch, serialize and normalize, and maps any failure onto a
// ToolResult with IsError set.
//
// An Adapter is immutable after construction and safe for concurrent use.
type Adapter struct {
	name          string
	description   string
	schema        schema.Schema
	agent         any
	dispatcher    *dispatch.Dispatcher
	logger        logging.Logger
	observer      observability.Observer
	privatePrefix string
}

var _ Tool = (*Adapter)(nil)

// NewAdapter creates an Adapter for agent. A nil schema accepts no parameters.
func NewAdapter(name, description string, s schema.Schema, agent any, optFns ...func(o *Options)) (*Adapter, error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}

	if agent == nil {
		return nil, fmt.Errorf("tool %s: agent is required", name)
	}

	opts := Options{
		Channel:  outputguard.Default,
		Logger:   logging.NoOpLogger{},
		Observer: observability.NoOp{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Family == nil {
		opts.Family = dispatch.MustLookup(dispatch.FamilyGeneric)
	}

	if s == nil {
		s = schema.Fields()
	}

	prefix := "_"
	if opts.PrivatePrefix != nil {
		prefix = *opts.PrivatePrefix
	}

	return &Adapter{
		name:        name,
		description: description,
		schema:      s,
		agent:       agent,
		dispatcher: dispatch.NewDispatcher(opts.Family, func(o *dispatch.Options) {
			o.Channel = opts.Channel
		}),
		logger:        opts.Logger,
		observer:      opts.Observer,
		privatePrefix: prefix,
	}, nil
}

// Name returns the tool name.
func (a *Adapter) Name() string { return a.name }

// Description returns the tool description.
func (a *Adapter) Description() string { return a.description }

// Schema returns the parameter schema.
func (a *Adapter) Schema() schema.Schema { return a.schema }

// Family returns the name of the dispatch family.
func (a *Adapter) Family() string { return a.dispatcher.Family().Name }

// Invoke runs one call. It always returns a result and never panics.
func (a *Adapter) Invoke(ctx context.Context, raw any) *core.ToolResult {
	id := uuid.NewString()
	start := time.Now()

	ctx, finish := a.observer.Start(ctx, a.name, id)

	outcome, captured := a.execute(ctx, id, raw)
	result, outcome := a.render(outcome)

	logging.LogToolCall(a.logger, logging.ToolCall{
		Tool:         a.name,
		InvocationID: id,
		Duration:     time.Since(start),
		Outcome:      outcome.Kind.String(),
		Err:          outcome.Cause,
		OutputBytes:  captured,
	})

	finish(outcome.Kind.String(), outcome.Cause)

	return result
}

// Outcome runs validation, dispatch and serialization and returns the tagged
// outcome without normalizing it. It never panics.
func (a *Adapter) Outcome(ctx context.Context, raw any) core.Outcome {
	outcome, _ := a.execute(ctx, uuid.NewString(), raw)
	return outcome
}

func (a *Adapter) execute(ctx context.Context, id string, raw any) (outcome core.Outcome, captured int) {
	defer func() {
		if r := recover(); r != nil {
			outcome = a.fail(&dispatch.ExecutionError{Family: a.Family(), Cause: &dispatch.PanicError{Value: r}})
		}
	}()

	params, err := schema.Parse(a.schema, raw)
	if err != nil {
		return a.fail(err), 0
	}

	res, err := a.dispatcher.Dispatch(ctx, a.agent, params)
	captured = len(res.Output)

	if err != nil {
		return a.fail(err), captured
	}

	v, err := canonical.Serialize(res.Value, func(o *canonical.Options) {
		o.PrivatePrefix = a.privatePrefix
		o.OnFallback = func(typ, reason string) {
			a.logger.Debug("result serialized through string fallback",
				"tool_name", a.name, "invocation_id", id, "type", typ, "reason", reason)
		}
	})
	if err != nil {
		return a.fail(err), captured
	}

	return core.Success(v), captured
}

// render normalizes a successful outcome or renders a failure. A
// normalization failure turns the outcome into a serialization failure.
func (a *Adapter) render(outcome core.Outcome) (result *core.ToolResult, final core.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			final = a.fail(&canonical.SerializationError{Type: fmt.Sprintf("%T", outcome.Value), Cause: fmt.Errorf("%v", r)})
			result = a.toolError(final).Result()
		}
	}()

	if outcome.Failed() {
		return a.toolError(outcome).Result(), outcome
	}

	result, err := Normalize(outcome.Value)
	if err != nil {
		final = a.fail(err)
		return a.toolError(final).Result(), final
	}

	return result, outcome
}

func (a *Adapter) fail(err error) core.Outcome {
	return Classify(a.name, err).Outcome()
}

func (a *Adapter) toolError(outcome core.Outcome) *ToolError {
	var te *ToolError
	if errors.As(outcome.Cause, &te) {
		return te
	}

	return Classify(a.name, outcome.Cause)
}
