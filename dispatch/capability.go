// Package dispatch invokes agents through whichever capability they expose.
//
// An agent is any Go value. Its capabilities are the small interfaces in this
// package (Runner, Invoker, Chatter, ...). A Family lists, in priority order,
// the Strategies used to call agents of one kind: each strategy pairs a
// capability with a Projection of the validated parameters. The first
// strategy whose capability the agent implements, and whose projection
// applies to the parameters, is used.
//
// Dispatcher wraps a Family with an output isolation scope so that anything
// the agent writes through outputguard.Writer stays with the invocation.
package dispatch

import (
	"context"
	"fmt"
)

// Capability names an agent method.
type Capability string

// Recognized capabilities.
const (
	CapabilityRun     Capability = "run"
	CapabilityInvoke  Capability = "invoke"
	CapabilityCall    Capability = "call"
	CapabilityExecute Capability = "execute"
	CapabilityChat    Capability = "chat"
	CapabilityQuery   Capability = "query"
	CapabilityKickoff Capability = "kickoff"
	CapabilityAInvoke Capability = "ainvoke"
)

// Runner is implemented by agents with a run method.
type Runner interface {
	Run(ctx context.Context, input any) (any, error)
}

// Invoker is implemented by agents with an invoke method.
type Invoker interface {
	Invoke(ctx context.Context, input any) (any, error)
}

// Caller is implemented by agents that are called directly.
type Caller interface {
	Call(ctx context.Context, input any) (any, error)
}

// Executor is implemented by agents with an execute method.
type Executor interface {
	Execute(ctx context.Context, input any) (any, error)
}

// Chatter is implemented by conversational agents.
type Chatter interface {
	Chat(ctx context.Context, query string) (any, error)
}

// Querier is implemented by question-answering agents.
type Querier interface {
	Query(ctx context.Context, query string) (any, error)
}

// KickoffRequest is the argument of a kickoff: the full parameter mapping
// under "inputs".
type KickoffRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// KickoffRunner is implemented by orchestration agents (crews, flows).
type KickoffRunner interface {
	Kickoff(ctx context.Context, req KickoffRequest) (any, error)
}

// Completion is the eventual result of an asynchronous invocation.
type Completion struct {
	Value any
	Err   error
}

// AsyncInvoker is implemented by agents that complete asynchronously. The
// returned channel delivers exactly one Completion.
type AsyncInvoker interface {
	AInvoke(ctx context.Context, input any) <-chan Completion
}

// AgentFunc adapts a plain function into an agent.
type AgentFunc func(ctx context.Context, input any) (any, error)

// Invoke calls f.
func (f AgentFunc) Invoke(ctx context.Context, input any) (any, error) { return f(ctx, input) }

// Go runs fn on its own goroutine and returns its completion channel. It is a
// helper for AsyncInvoker implementations.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) <-chan Completion {
	ch := make(chan Completion, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- Completion{Err: &PanicError{Value: r}}
			}
		}()

		v, err := fn(ctx)
		ch <- Completion{Value: v, Err: err}
	}()

	return ch
}

type callFunc func(ctx context.Context, input any) (any, error)

// bind returns the call for capability c on agent, if the agent has it.
func bind(c Capability, agent any) (callFunc, bool) {
	switch c {
	case CapabilityRun:
		if a, ok := agent.(Runner); ok {
			return a.Run, true
		}
	case CapabilityInvoke:
		if a, ok := agent.(Invoker); ok {
			return a.Invoke, true
		}
	case CapabilityCall:
		if a, ok := agent.(Caller); ok {
			return a.Call, true
		}
	case CapabilityExecute:
		if a, ok := agent.(Executor); ok {
			return a.Execute, true
		}
	case CapabilityChat:
		if a, ok := agent.(Chatter); ok {
			return func(ctx context.Context, input any) (any, error) {
				return a.Chat(ctx, queryString(input))
			}, true
		}
	case CapabilityQuery:
		if a, ok := agent.(Querier); ok {
			return func(ctx context.Context, input any) (any, error) {
				return a.Query(ctx, queryString(input))
			}, true
		}
	case CapabilityKickoff:
		if a, ok := agent.(KickoffRunner); ok {
			return func(ctx context.Context, input any) (any, error) {
				return a.Kickoff(ctx, kickoffRequest(input))
			}, true
		}
	case CapabilityAInvoke:
		if a, ok := agent.(AsyncInvoker); ok {
			return func(ctx context.Context, input any) (any, error) {
				return await(ctx, a.AInvoke(ctx, input))
			}, true
		}
	}

	return nil, false
}

// await blocks until the completion arrives or ctx is done.
func await(ctx context.Context, ch <-chan Completion) (any, error) {
	if ch == nil {
		return nil, fmt.Errorf("asynchronous invocation returned no completion")
	}

	select {
	case c, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("asynchronous invocation completed without a result")
		}
		return c.Value, c.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func queryString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func kickoffRequest(v any) KickoffRequest {
	switch r := v.(type) {
	case KickoffRequest:
		return r
	case map[string]any:
		return KickoffRequest{Inputs: r}
	default:
		return KickoffRequest{Inputs: map[string]any{"input": v}}
	}
}
