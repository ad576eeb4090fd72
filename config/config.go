// Package config loads the YAML description of an agentmcp server: the
// serving transport, logging, tracing and the model-backed tools to publish.
//
// Values may reference environment variables as ${VAR} or ${VAR:-default};
// .env files next to the working directory are loaded first.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hupe1980/agentmcp/dispatch"
	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/observability"
	"github.com/hupe1980/agentmcp/server"
)

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig               `yaml:"server"`
	Log     LogConfig                  `yaml:"log"`
	Tracing observability.TracerConfig `yaml:"tracing"`
	Tools   []ToolConfig               `yaml:"tools"`

	// BaseDir resolves relative schema files. Set by Load.
	BaseDir string `yaml:"-"`
}

// ServerConfig configures the MCP server and its transport.
type ServerConfig struct {
	Name           string `yaml:"name"`
	Version        string `yaml:"version"`
	Instructions   string `yaml:"instructions"`
	Transport      string `yaml:"transport"`
	Address        string `yaml:"address"`
	MetricsAddress string `yaml:"metrics_address"`
}

// LogConfig configures the diagnostic logger. Logs are always written to stderr.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// ToolConfig declares one published tool backed by a model.
type ToolConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Family      string `yaml:"family"`

	// Schema is an inline JSON Schema. Property order is preserved.
	Schema any `yaml:"schema"`

	// SchemaFile points to a JSON or YAML schema document.
	SchemaFile string `yaml:"schema_file"`

	Model ModelConfig `yaml:"model"`
}

// ModelConfig selects the model behind a tool.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Instruction string  `yaml:"instruction"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Stream      bool    `yaml:"stream"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Log.SetDefaults()

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Server.Name
	}

	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}

	for i := range c.Tools {
		c.Tools[i].SetDefaults()
	}
}

// SetDefaults fills unset fields.
func (c *ServerConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = server.DefaultName
	}

	if c.Version == "" {
		c.Version = server.DefaultVersion
	}

	if c.Transport == "" {
		c.Transport = string(server.TransportStdio)
	}

	if c.Address == "" && c.Transport != string(server.TransportStdio) {
		c.Address = "127.0.0.1:8080"
	}
}

// SetDefaults fills unset fields.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "json"
	}
}

// SetDefaults fills unset fields.
func (c *ToolConfig) SetDefaults() {
	if c.Family == "" {
		c.Family = dispatch.FamilyMCPAgent
	}

	if c.Model.Temperature == 0 {
		c.Model.Temperature = 0.7
	}

	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = 4096
	}
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := server.ParseTransport(c.Server.Transport); err != nil {
		errs = append(errs, fmt.Errorf("server.transport: %w", err))
	} else if c.Server.Transport != string(server.TransportStdio) && c.Server.Address == "" {
		errs = append(errs, fmt.Errorf("server.address: required for transport %s", c.Server.Transport))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format: must be json or text, got %q", c.Log.Format))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio: must be between 0 and 1, got %v", c.Tracing.SampleRatio))
	}

	seen := map[string]bool{}
	for i, t := range c.Tools {
		prefix := fmt.Sprintf("tools[%d]", i)
		if t.Name != "" {
			prefix = fmt.Sprintf("tools[%s]", t.Name)
		}

		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name: required", prefix))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate tool name", prefix))
		}
		seen[t.Name] = true

		if _, err := dispatch.Lookup(t.Family); err != nil {
			errs = append(errs, fmt.Errorf("%s.family: %w", prefix, err))
		}

		if t.Schema != nil && t.SchemaFile != "" {
			errs = append(errs, fmt.Errorf("%s: schema and schema_file are mutually exclusive", prefix))
		}

		switch t.Model.Provider {
		case ProviderOpenAI, ProviderAnthropic:
		case "":
			errs = append(errs, fmt.Errorf("%s.model.provider: required", prefix))
		default:
			errs = append(errs, fmt.Errorf("%s.model.provider: unknown provider %q", prefix, t.Model.Provider))
		}

		if t.Model.Temperature < 0 || t.Model.Temperature > 2 {
			errs = append(errs, fmt.Errorf("%s.model.temperature: must be between 0 and 2", prefix))
		}
	}

	return errors.Join(errs...)
}

// SchemaPath returns the absolute location of a tool's schema file.
func (c *Config) SchemaPath(t ToolConfig) string {
	if t.SchemaFile == "" || filepath.IsAbs(t.SchemaFile) {
		return t.SchemaFile
	}

	return filepath.Join(c.BaseDir, t.SchemaFile)
}
