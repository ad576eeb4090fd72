package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized model input.
type Request struct {
	Instructions string    `json:"instructions"`
	Messages     []Message `json:"messages"`
	Stream       bool      `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface required to drive generation.
//
// Generate emits zero or more partial responses followed by exactly one
// final response, or an error. Both channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when a model ends without a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains a generation and returns its final response. onPartial, if
// set, receives every partial chunk.
func Collect(ctx context.Context, m Model, req Request, onPartial func(Response)) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		done  bool
	)

	for r := range respCh {
		if r.Partial {
			if onPartial != nil {
				onPartial(r)
			}
			continue
		}
		final, done = r, true
	}

	if err := <-errCh; err != nil {
		return Response{}, err
	}

	if !done {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	err       error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every generation fail with err.
func (m *MockModel) FailWith(err error) { m.err = err }

// Generate implements Model; emits optional streaming word chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if m.err != nil {
			errCh <- m.err
			return
		}

		if len(req.Messages) == 0 {
			errCh <- errors.New("no messages provided")
			return
		}

		input := req.Messages[len(req.Messages)-1].Text

		full, ok := m.responses[input]
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", input)
		}

		if req.Stream {
			for _, w := range strings.SplitAfter(full, " ") {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: w}:
				}
			}
		}

		words := len(strings.Fields(input))
		respCh <- Response{
			Text:         full,
			FinishReason: "stop",
			Usage: &TokenUsage{
				PromptTokens:     words,
				CompletionTokens: len(strings.Fields(full)),
				TotalTokens:      words + len(strings.Fields(full)),
			},
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
