package agentmcp

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaisdk "github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"

	"github.com/hupe1980/agentmcp/config"
	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/model"
	"github.com/hupe1980/agentmcp/model/anthropic"
	"github.com/hupe1980/agentmcp/model/openai"
	"github.com/hupe1980/agentmcp/observability"
	"github.com/hupe1980/agentmcp/tool"
)

// NewModel creates the provider model described by mc. Credentials fall back
// to the provider's standard environment variable.
func NewModel(mc config.ModelConfig) (model.Model, error) {
	switch mc.Provider {
	case config.ProviderOpenAI:
		var opts []openaioption.RequestOption
		if mc.APIKey != "" {
			opts = append(opts, openaioption.WithAPIKey(mc.APIKey))
		}
		if mc.BaseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(mc.BaseURL))
		}

		client := openaisdk.NewClient(opts...)

		return openai.NewModelFromClient(&client, func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = mc.Temperature
			o.MaxCompletionTokens = mc.MaxTokens
		}), nil
	case config.ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if mc.APIKey != "" {
			opts = append(opts, anthropicoption.WithAPIKey(mc.APIKey))
		}
		if mc.BaseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(mc.BaseURL))
		}

		client := anthropicsdk.NewClient(opts...)

		return anthropic.NewModelFromClient(&client, func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			o.Temperature = mc.Temperature
			o.MaxTokens = mc.MaxTokens
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}

// FromConfig creates an AgentMCP publishing the model-backed tools of cfg.
// Options from cfg.Server are applied before optFns.
func FromConfig(cfg *config.Config, optFns ...func(o *Options)) (*AgentMCP, error) {
	m := New(append([]func(o *Options){func(o *Options) {
		o.Name = cfg.Server.Name
		o.Version = cfg.Server.Version
		o.Instructions = cfg.Server.Instructions
	}}, optFns...)...)

	var metrics *observability.Metrics
	if r, ok := m.opts.Observer.(*observability.Recorder); ok {
		metrics = r.Metrics()
	}

	for _, t := range cfg.Tools {
		s, err := cfg.LoadSchema(t)
		if err != nil {
			return nil, err
		}

		family, err := dispatch.Lookup(t.Family)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}

		llm, err := NewModel(t.Model)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}

		agent, err := model.NewAgent(llm, func(o *model.AgentOptions) {
			o.Instruction = t.Model.Instruction
			o.Stream = t.Model.Stream
			o.Logger = m.opts.Logger
			o.Metrics = metrics
		})
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}

		if err := m.Register(t.Name, t.Description, s, agent, func(o *tool.Options) { o.Family = family }); err != nil {
			return nil, err
		}
	}

	return m, nil
}
