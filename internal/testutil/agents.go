package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/outputguard"
)

// RunAgent exposes only the run capability.
type RunAgent struct {
	Fn func(ctx context.Context, input any) (any, error)

	mu    sync.Mutex
	calls []any
}

// Run records input and calls Fn.
func (a *RunAgent) Run(ctx context.Context, input any) (any, error) {
	a.mu.Lock()
	a.calls = append(a.calls, input)
	a.mu.Unlock()

	return a.Fn(ctx, input)
}

// Calls returns the inputs received so far.
func (a *RunAgent) Calls() []any {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]any(nil), a.calls...)
}

// Returning returns a RunAgent answering every call with v.
func Returning(v any) *RunAgent {
	return &RunAgent{Fn: func(context.Context, any) (any, error) { return v, nil }}
}

// Failing returns a RunAgent failing every call with msg.
func Failing(msg string) *RunAgent {
	return &RunAgent{Fn: func(context.Context, any) (any, error) { return nil, errors.New(msg) }}
}

// Panicking returns a RunAgent panicking with v.
func Panicking(v any) *RunAgent {
	return &RunAgent{Fn: func(context.Context, any) (any, error) { panic(v) }}
}

// ChatAgent exposes only the chat capability.
type ChatAgent struct {
	Fn func(ctx context.Context, query string) (any, error)
}

// Chat calls Fn.
func (a ChatAgent) Chat(ctx context.Context, query string) (any, error) { return a.Fn(ctx, query) }

// QueryAgent exposes only the query capability.
type QueryAgent struct {
	Fn func(ctx context.Context, query string) (any, error)
}

// Query calls Fn.
func (a QueryAgent) Query(ctx context.Context, query string) (any, error) { return a.Fn(ctx, query) }

// KickoffAgent exposes only the kickoff capability and echoes its request.
type KickoffAgent struct{}

// Kickoff returns the request unchanged.
func (KickoffAgent) Kickoff(_ context.Context, req dispatch.KickoffRequest) (any, error) {
	return req, nil
}

// AsyncAgent exposes only the ainvoke capability.
type AsyncAgent struct {
	Fn func(ctx context.Context, input any) (any, error)
}

// AInvoke runs Fn on its own goroutine.
func (a AsyncAgent) AInvoke(ctx context.Context, input any) <-chan dispatch.Completion {
	return dispatch.Go(ctx, func(ctx context.Context) (any, error) { return a.Fn(ctx, input) })
}

// Opaque exposes no recognized capability.
type Opaque struct {
	Name string
}

// PrintingAgent writes Lines to its scoped writer and Stray to Channel while
// it runs, then returns Result.
type PrintingAgent struct {
	Lines   []string
	Stray   string
	Channel *outputguard.Channel
	Result  any

	// Gate, when set, is waited on between writes.
	Gate chan struct{}
}

// Run implements the run capability.
func (a *PrintingAgent) Run(ctx context.Context, _ any) (any, error) {
	for _, l := range a.Lines {
		outputguard.Println(ctx, l)

		if a.Channel != nil && a.Stray != "" {
			_, _ = a.Channel.Write([]byte(a.Stray))
		}

		if a.Gate != nil {
			<-a.Gate
		}
	}

	return a.Result, nil
}

// Node is a self-referential value.
type Node struct {
	Name string
	Next *Node
}

// Cycle returns a two-node cycle.
func Cycle() *Node {
	a := &Node{Name: "a"}
	a.Next = &Node{Name: "b", Next: a}

	return a
}
