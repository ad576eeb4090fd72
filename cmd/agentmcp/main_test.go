package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentmcp/config"
)

const testConfig = `
tools:
  - name: ask
    description: Ask the model
    model:
      provider: anthropic
      name: claude-test
    schema:
      type: object
      properties:
        question: {type: string}
      required: [question]
`

func TestListTools(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, listTools(&out, cfg, true))

	assert.Contains(t, out.String(), "NAME")
	assert.Regexp(t, `ask\s+mcp_agent\s+anthropic\s+claude-test\s+Ask the model`, out.String())
	assert.Contains(t, out.String(), `"question"`)
}

func TestValidate(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, validate(&out, "agentmcp.yaml", cfg))
	assert.Equal(t, "agentmcp.yaml is valid (1 tools)\n", out.String())

	cfg.Tools[0].Schema = map[string]any{"type": "string"}
	assert.Error(t, validate(&out, "agentmcp.yaml", cfg))

	cfg.Tools[0].Model.Provider = ""
	assert.ErrorContains(t, validate(&out, "agentmcp.yaml", cfg), "model.provider: required")
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(config.LogConfig{Level: "debug", Format: "text"})
	require.NoError(t, err)

	_, err = newLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
