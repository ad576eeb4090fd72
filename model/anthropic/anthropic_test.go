package anthropic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentmcp/model"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)

	return NewModelFromClient(&client, func(o *Options) { o.Model = "claude-test" })
}

func TestModel_Generate(t *testing.T) {
	var body []byte

	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "pong"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`)
	})

	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "be brief",
		Messages:     []model.Message{{Role: model.RoleUser, Text: "ping"}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "pong", resp.Text)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, &model.TokenUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}, resp.Usage)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "claude-test", req.Get("model").String())
	assert.Equal(t, "be brief", req.Get("system.0.text").String())
	assert.Equal(t, "user", req.Get("messages.0.role").String())
	assert.Equal(t, "ping", req.Get("messages.0.content.0.text").String())
}

func TestModel_GenerateStreaming(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")

		events := []struct{ name, data string }{
			{"message_start", `{"type":"message_start","message":{"id":"msg_2","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":0}}}`},
			{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"po"}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"ng"}}`},
			{"content_block_stop", `{"type":"content_block_stop","index":0}`},
			{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":2}}`},
			{"message_stop", `{"type":"message_stop"}`},
		}

		for _, e := range events {
			_, _ = io.WriteString(w, "event: "+e.name+"\ndata: "+e.data+"\n\n")
		}
	})

	var partials []string
	resp, err := model.Collect(context.Background(), m, model.Request{
		Messages: []model.Message{{Role: model.RoleUser, Text: "ping"}},
		Stream:   true,
	}, func(r model.Response) { partials = append(partials, r.Text) })
	require.NoError(t, err)

	assert.Equal(t, []string{"po", "ng"}, partials)
	assert.Equal(t, "pong", resp.Text)
	assert.Equal(t, "end_turn", resp.FinishReason)
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: model.RoleSystem, Text: "sys"},
		{Role: model.RoleUser, Text: "q"},
		{Role: model.RoleAssistant, Text: "a"},
		{Role: model.RoleUser, Text: ""},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)

	blocks := systemBlocks(model.Request{Instructions: "i", Messages: []model.Message{{Role: model.RoleSystem, Text: "sys"}}})
	require.Len(t, blocks, 2)
	assert.Equal(t, "sys", blocks[1].Text)
}
