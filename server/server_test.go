package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentmcp/internal/testutil"
	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/outputguard"
	"github.com/hupe1980/agentmcp/registry"
	"github.com/hupe1980/agentmcp/schema"
	"github.com/hupe1980/agentmcp/tool"
)

const initialize = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"1.0"},"capabilities":{}}}`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	search, err := tool.NewFunctionTool("search", "Search the index",
		schema.Fields(
			schema.Field{Name: "query", Validator: schema.String(), Description: "Search query"},
			schema.Field{Name: "limit", Validator: schema.Default(schema.Integer(), int64(5))},
		),
		func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"query": args["query"], "limit": args["limit"]}, nil
		},
	)
	require.NoError(t, err)

	links, err := tool.NewAdapter("links", "Returns a resource link", nil, testutil.Returning(map[string]any{
		"content":       []any{map[string]any{"type": "text", "text": "see report"}},
		"resourceLinks": []any{map[string]any{"name": "report", "uri": "file:///tmp/report.txt"}},
	}))
	require.NoError(t, err)

	reg, err := registry.NewBuilder().Add(search, links).Build()
	require.NoError(t, err)

	return New(reg, func(o *Options) {
		o.Name = "test-server"
		o.Channel = outputguard.New(io.Discard)
	})
}

func roundTrip(t *testing.T, s *Server, msg string) gjson.Result {
	t.Helper()

	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	require.NotNil(t, resp)

	b, err := json.Marshal(resp)
	require.NoError(t, err)

	return gjson.ParseBytes(b)
}

func TestServer_ListTools(t *testing.T) {
	s := newTestServer(t)

	info := roundTrip(t, s, initialize)
	assert.Equal(t, "test-server", info.Get("result.serverInfo.name").String())

	res := roundTrip(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	names := []string{}
	for _, n := range res.Get("result.tools.#.name").Array() {
		names = append(names, n.String())
	}
	assert.ElementsMatch(t, []string{"search", "links"}, names)

	search := res.Get(`result.tools.#(name=="search")`)
	assert.Equal(t, "Search the index", search.Get("description").String())
	assert.Equal(t, "string", search.Get("inputSchema.properties.query.type").String())
	assert.Equal(t, `["query"]`, search.Get("inputSchema.required").Raw)
}

func TestServer_CallTool(t *testing.T) {
	s := newTestServer(t)
	roundTrip(t, s, initialize)

	res := roundTrip(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search","arguments":{"query":"go"}}}`)
	assert.False(t, res.Get("result.isError").Bool())
	assert.Equal(t, "text", res.Get("result.content.0.type").String())
	assert.JSONEq(t, `{"limit":5,"query":"go"}`, res.Get("result.content.0.text").String())
	assert.Equal(t, "go", res.Get("result.structuredContent.query").String())
}

func TestServer_CallTool_Positional(t *testing.T) {
	s := newTestServer(t)
	roundTrip(t, s, initialize)

	res := roundTrip(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"search","arguments":["go",2]}}`)
	assert.False(t, res.Get("result.isError").Bool())
	assert.Equal(t, int64(2), res.Get("result.structuredContent.limit").Int())
}

func TestServer_CallTool_ValidationFailureIsInBand(t *testing.T) {
	s := newTestServer(t)
	roundTrip(t, s, initialize)

	res := roundTrip(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"search","arguments":{}}}`)
	require.False(t, res.Get("error").Exists())
	assert.True(t, res.Get("result.isError").Bool())

	text := res.Get("result.content.0.text").String()
	assert.True(t, strings.HasPrefix(text, "Validation error in tool search"))
	assert.Contains(t, text, "- query: field required")
}

func TestServer_CallTool_ResourceLinks(t *testing.T) {
	s := newTestServer(t)
	roundTrip(t, s, initialize)

	res := roundTrip(t, s, `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"links"}}`)
	assert.Equal(t, "see report", res.Get("result.content.0.text").String())
	assert.Equal(t, "resource_link", res.Get("result.content.1.type").String())
	assert.Equal(t, "file:///tmp/report.txt", res.Get("result.content.1.uri").String())
}

func TestToCallToolResult(t *testing.T) {
	out := ToCallToolResult(testutil.NewResultBuilder().Text("a").Text("b").Link("r", "file:///r").Error().Build())

	require.Len(t, out.Content, 3)
	assert.True(t, out.IsError)

	text, ok := out.Content[1].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "b", text.Text)

	link, ok := out.Content[2].(mcp.ResourceLink)
	require.True(t, ok)
	assert.Equal(t, "file:///r", link.URI)

	assert.True(t, ToCallToolResult(nil).IsError)
}

func TestHandler(t *testing.T) {
	echo, err := tool.NewAdapter("echo", "", nil, testutil.Returning("pong"))
	require.NoError(t, err)

	res, err := Handler(echo)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, []mcp.Content{mcp.NewTextContent("pong")}, res.Content)

	failing, err := tool.NewAdapter("fail", "", nil, testutil.Failing("boom"))
	require.NoError(t, err)

	res, err = Handler(failing)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_ServeIO(t *testing.T) {
	s := newTestServer(t)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.ServeIO(ctx, inR, outW) }()

	lines := bufio.NewReader(outR)
	readFrame := func() gjson.Result {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		return gjson.Parse(line)
	}

	_, err := io.WriteString(inW, initialize+"\n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), readFrame().Get("id").Int())

	_, err = io.WriteString(inW, `{"jsonrpc":"2.0","method":"notifications/initialized"}`+"\n")
	require.NoError(t, err)

	_, err = io.WriteString(inW, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"search","arguments":{"query":"stdio"}}}`+"\n")
	require.NoError(t, err)

	frame := readFrame()
	assert.Equal(t, int64(2), frame.Get("id").Int())
	assert.Equal(t, "stdio", frame.Get("result.structuredContent.query").String())

	cancel()
	_ = inW.Close()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeIO did not return after cancel")
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestServer_ServeIO_TransportErrorsReachLogger(t *testing.T) {
	var logs bytes.Buffer
	var diagnostics bytes.Buffer

	ch := outputguard.New(&diagnostics)
	s := New(newTestServer(t).Registry(), func(o *Options) {
		o.Logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &logs})
		o.Channel = ch
	})

	// An open invocation scope quarantines everything written to the channel.
	_, scope := ch.Isolate(context.Background())
	defer scope.Close()

	err := s.ServeIO(context.Background(), strings.NewReader("not json\n"), brokenWriter{})
	require.Error(t, err)

	assert.Contains(t, logs.String(), "MCP transport error")
	assert.Contains(t, logs.String(), "broken pipe")
	assert.Empty(t, diagnostics.String())
}

func TestServer_HTTPHandler(t *testing.T) {
	s := newTestServer(t)

	h, err := s.HTTPHandler(TransportHTTP)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(initialize))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test-server")

	_, err = s.HTTPHandler(TransportStdio)
	assert.Error(t, err)
}

func TestServer_ServeHTTP_Shutdown(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, ServeOptions{Transport: TransportSSE, Address: "127.0.0.1:0"})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestParseTransport(t *testing.T) {
	for in, want := range map[string]Transport{"": TransportStdio, "stdio": TransportStdio, "sse": TransportSSE, "http": TransportHTTP} {
		got, err := ParseTransport(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseTransport("grpc")
	assert.Error(t, err)
}
