package model

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/observability"
	"github.com/hupe1980/agentmcp/outputguard"
)

// AgentOptions configures an Agent.
type AgentOptions struct {
	// Instruction is sent as the system prompt of every request.
	Instruction string

	// Stream requests incremental output. Partial chunks are written to the
	// invocation's isolated output scope.
	Stream bool

	// Logger receives one entry per model call. Defaults to NoOpLogger.
	Logger logging.Logger

	// Metrics, when set, accumulates token usage per model.
	Metrics *observability.Metrics
}

// Agent answers a single prompt with a model completion. It implements the
// chat and query capabilities and keeps no conversation state between calls.
type Agent struct {
	model Model
	opts  AgentOptions
}

var (
	_ dispatch.Chatter = (*Agent)(nil)
	_ dispatch.Querier = (*Agent)(nil)
)

// NewAgent creates an Agent backed by m.
func NewAgent(m Model, optFns ...func(o *AgentOptions)) (*Agent, error) {
	if m == nil {
		return nil, errors.New("model is required")
	}

	opts := AgentOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Agent{model: m, opts: opts}, nil
}

// Model returns the underlying model.
func (a *Agent) Model() Model { return a.model }

// Chat sends message to the model and returns the completion text.
func (a *Agent) Chat(ctx context.Context, message string) (any, error) {
	return a.generate(ctx, message)
}

// Query is an alias of Chat for question-answering hosts.
func (a *Agent) Query(ctx context.Context, query string) (any, error) {
	return a.generate(ctx, query)
}

func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	req := Request{
		Instructions: a.opts.Instruction,
		Messages:     []Message{{Role: RoleUser, Text: prompt}},
		Stream:       a.opts.Stream,
	}

	var onPartial func(Response)
	if a.opts.Stream {
		w := outputguard.Writer(ctx)
		onPartial = func(r Response) { _, _ = w.Write([]byte(r.Text)) }
	}

	name := a.model.Info().Name
	start := time.Now()

	resp, err := Collect(ctx, a.model, req, onPartial)

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}

	logging.LogModelCall(a.opts.Logger, name, tokens, time.Since(start), err)
	a.opts.Metrics.AddModelTokens(name, tokens)

	if err != nil {
		return "", err
	}

	return resp.Text, nil
}
