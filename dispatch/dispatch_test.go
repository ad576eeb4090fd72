package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentmcp/outputguard"
	"github.com/hupe1980/agentmcp/schema"
)

func params(t *testing.T, s schema.Schema, raw any) *schema.Params {
	t.Helper()

	p, err := schema.Parse(s, raw)
	require.NoError(t, err)

	return p
}

var querySchema = schema.Fields(schema.Field{Name: "query", Validator: schema.String()})

type runner struct{ got any }

func (r *runner) Run(_ context.Context, input any) (any, error) {
	r.got = input
	return "ran", nil
}

type runInvoker struct{ runner }

func (r *runInvoker) Invoke(_ context.Context, _ any) (any, error) { return "invoked", nil }

type chatter struct{}

func (chatter) Chat(_ context.Context, q string) (any, error) { return "chat:" + q, nil }

type querier struct{}

func (querier) Query(_ context.Context, q string) (any, error) { return "query:" + q, nil }

type crew struct{ got KickoffRequest }

func (c *crew) Kickoff(_ context.Context, req KickoffRequest) (any, error) {
	c.got = req
	return req.Inputs, nil
}

type asyncAgent struct{ delay time.Duration }

func (a asyncAgent) AInvoke(ctx context.Context, input any) <-chan Completion {
	return Go(ctx, func(ctx context.Context) (any, error) {
		select {
		case <-time.After(a.delay):
			return input, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

type failing struct{}

func (failing) Run(context.Context, any) (any, error) { return nil, errors.New("boom") }

type panicking struct{}

func (panicking) Run(context.Context, any) (any, error) { panic("kaboom") }

type runResult struct{ answer string }

func (r runResult) FinalOutput() any { return r.answer }

type openAIAgent struct{}

func (openAIAgent) Run(_ context.Context, input any) (any, error) {
	return runResult{answer: "final:" + input.(string)}, nil
}

type pydanticResult struct{}

func (pydanticResult) Raw() any { return "raw" }

type pydanticAgent struct{}

func (pydanticAgent) Run(_ context.Context, input any) (any, error) { return pydanticResult{}, nil }

func TestFamily_FirstApplicableStrategyWins(t *testing.T) {
	agent := &runInvoker{}

	out, err := MustLookup(FamilyLangChainTool).Dispatch(context.Background(), agent, params(t, querySchema, map[string]any{"query": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "ran", out)
	assert.Equal(t, map[string]any{"query": "hi"}, agent.got)

	out, err = MustLookup(FamilyLangGraph).Dispatch(context.Background(), agent, params(t, querySchema, map[string]any{"query": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "invoked", out)
}

func TestFamily_QueryProjection(t *testing.T) {
	p := params(t, querySchema, map[string]any{"query": "hi"})

	out, err := MustLookup(FamilyMCPAgent).Dispatch(context.Background(), chatter{}, p)
	require.NoError(t, err)
	assert.Equal(t, "chat:hi", out)

	out, err = MustLookup(FamilyMCPAgent).Dispatch(context.Background(), querier{}, p)
	require.NoError(t, err)
	assert.Equal(t, "query:hi", out)

	single := schema.Fields(schema.Field{Name: "question", Validator: schema.String()})
	out, err = MustLookup(FamilyLlamaIndex).Dispatch(context.Background(), chatter{}, params(t, single, []any{"why"}))
	require.NoError(t, err)
	assert.Equal(t, "chat:why", out)

	two := schema.Fields(schema.Field{Name: "a"}, schema.Field{Name: "b"})
	_, err = MustLookup(FamilyMCPAgent).Dispatch(context.Background(), chatter{}, params(t, two, map[string]any{"a": 1, "b": 2}))
	assert.ErrorIs(t, err, ErrUnsupportedAgent)
}

func TestFamily_KickoffWrapsInputs(t *testing.T) {
	agent := &crew{}

	out, err := MustLookup(FamilyCrewAI).Dispatch(context.Background(), agent, params(t, querySchema, map[string]any{"query": "topic"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "topic"}, out)
	assert.Equal(t, KickoffRequest{Inputs: map[string]any{"query": "topic"}}, agent.got)
}

func TestFamily_Positional(t *testing.T) {
	two := schema.Fields(schema.Field{Name: "a"}, schema.Field{Name: "b"})
	agent := &runner{}

	_, err := MustLookup(FamilyLlamaIndex).Dispatch(context.Background(), agent, params(t, two, map[string]any{"b": 2, "a": 1}))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, agent.got)
}

func TestFamily_Unwrap(t *testing.T) {
	out, err := MustLookup(FamilyOpenAI).Dispatch(context.Background(), openAIAgent{}, params(t, querySchema, []any{"hi"}))
	require.NoError(t, err)
	assert.Equal(t, "final:hi", out)

	out, err = MustLookup(FamilyPydantic).Dispatch(context.Background(), pydanticAgent{}, params(t, querySchema, []any{"hi"}))
	require.NoError(t, err)
	assert.Equal(t, "raw", out)
}

type transcript []any

func (t transcript) ToInputList() []any { return t }

type recordingRunner struct{ inputs []any }

func (r *recordingRunner) Run(_ context.Context, input any) (any, error) {
	r.inputs = append(r.inputs, input)
	return runResult{answer: "main"}, nil
}

func TestOrchestrator(t *testing.T) {
	openAI := MustLookup(FamilyOpenAI)
	p := params(t, querySchema, map[string]any{"query": "plan a trip"})

	t.Run("without hooks runs main with the query", func(t *testing.T) {
		main := &recordingRunner{}
		out, err := openAI.Dispatch(context.Background(), &Orchestrator{Main: main}, p)
		require.NoError(t, err)
		assert.Equal(t, "main", out)
		assert.Equal(t, []any{"plan a trip"}, main.inputs)
	})

	t.Run("before result replaces the input", func(t *testing.T) {
		main := &recordingRunner{}
		o := &Orchestrator{
			Main: main,
			Before: func(_ context.Context, v any) (any, error) {
				return transcript{v, "researched"}, nil
			},
		}

		_, err := openAI.Dispatch(context.Background(), o, p)
		require.NoError(t, err)
		assert.Equal(t, []any{[]any{"plan a trip", "researched"}}, main.inputs)
	})

	t.Run("nil before result keeps the input", func(t *testing.T) {
		main := &recordingRunner{}
		o := &Orchestrator{
			Main:   main,
			Before: func(context.Context, any) (any, error) { return nil, nil },
		}

		_, err := openAI.Dispatch(context.Background(), o, p)
		require.NoError(t, err)
		assert.Equal(t, []any{"plan a trip"}, main.inputs)
	})

	t.Run("after result supplies the final output", func(t *testing.T) {
		o := &Orchestrator{
			Main: &recordingRunner{},
			After: func(_ context.Context, v any) (any, error) {
				return runResult{answer: v.(runResult).answer + "+reviewed"}, nil
			},
		}

		out, err := openAI.Dispatch(context.Background(), o, p)
		require.NoError(t, err)
		assert.Equal(t, "main+reviewed", out)
	})

	t.Run("hook failures are execution errors", func(t *testing.T) {
		main := &recordingRunner{}
		o := &Orchestrator{
			Main:   main,
			Before: func(context.Context, any) (any, error) { return nil, errors.New("no research") },
		}

		_, err := openAI.Dispatch(context.Background(), o, p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "before hook: no research")
		assert.Empty(t, main.inputs)

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, CapabilityRun, execErr.Capability)
	})
}

func TestFamily_Async(t *testing.T) {
	out, err := MustLookup(FamilyGeneric).Dispatch(context.Background(), asyncAgent{delay: time.Millisecond}, params(t, querySchema, map[string]any{"query": "x"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "x"}, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = MustLookup(FamilyGeneric).Dispatch(ctx, asyncAgent{delay: time.Hour}, params(t, querySchema, map[string]any{"query": "x"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, CapabilityAInvoke, execErr.Capability)
}

func TestFamily_Failures(t *testing.T) {
	p := params(t, querySchema, map[string]any{"query": "x"})

	_, err := MustLookup(FamilyGeneric).Dispatch(context.Background(), struct{}{}, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedAgent)
	assert.Contains(t, err.Error(), "unsupported agent")

	_, err = MustLookup(FamilyGeneric).Dispatch(context.Background(), nil, p)
	assert.ErrorIs(t, err, ErrUnsupportedAgent)

	_, err = MustLookup(FamilyGeneric).Dispatch(context.Background(), failing{}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = MustLookup(FamilyGeneric).Dispatch(context.Background(), panicking{}, p)
	require.Error(t, err)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
}

func TestAgentFunc(t *testing.T) {
	fn := AgentFunc(func(_ context.Context, input any) (any, error) {
		return input.(map[string]any)["query"], nil
	})

	out, err := MustLookup(FamilyFunction).Dispatch(context.Background(), fn, params(t, querySchema, map[string]any{"query": "q"}))
	require.NoError(t, err)
	assert.Equal(t, "q", out)
}

func TestLookup(t *testing.T) {
	_, err := Lookup("nope")
	assert.Error(t, err)

	f := MustLookup(FamilyGeneric)
	f.Strategies[0] = Strategy{Capability: CapabilityRun}
	assert.Equal(t, CapabilityAInvoke, MustLookup(FamilyGeneric).Strategies[0].Capability)

	assert.Contains(t, Families(), FamilyCrewAI)
	assert.Len(t, Families(), 10)
}

type printingAgent struct{ id string }

func (a printingAgent) Run(ctx context.Context, _ any) (any, error) {
	for i := 0; i < 5; i++ {
		outputguard.Printf(ctx, "%s;", a.id)
		time.Sleep(time.Millisecond)
	}

	return a.id, nil
}

func TestDispatcher_IsolatesConcurrentOutput(t *testing.T) {
	ch := outputguard.New(nil)
	d := NewDispatcher(MustLookup(FamilyGeneric), func(o *Options) { o.Channel = ch })
	p := params(t, querySchema, map[string]any{"query": "x"})

	var wg sync.WaitGroup

	results := make([]Result, 2)
	for i, id := range []string{"a", "b"} {
		wg.Add(1)

		go func(i int, id string) {
			defer wg.Done()

			res, err := d.Dispatch(context.Background(), printingAgent{id: id}, p)
			assert.NoError(t, err)
			results[i] = res
		}(i, id)
	}

	wg.Wait()

	assert.Equal(t, "a;a;a;a;a;", results[0].Output)
	assert.Equal(t, "b;b;b;b;b;", results[1].Output)
	assert.Equal(t, 0, ch.Active())
}

func TestDispatcher_RestoresOnPanic(t *testing.T) {
	ch := outputguard.New(nil)
	d := NewDispatcher(MustLookup(FamilyGeneric), func(o *Options) { o.Channel = ch })

	_, err := d.Dispatch(context.Background(), panicking{}, params(t, querySchema, map[string]any{"query": "x"}))
	require.Error(t, err)
	assert.Equal(t, 0, ch.Active())
	assert.Same(t, d.Family(), d.Family())
}
