package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentmcp/canonical"
	"github.com/hupe1980/agentmcp/schema"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// EnvFiles are dotenv files loaded before parsing. Defaults to DefaultEnvFiles.
	EnvFiles []string

	// SkipValidation returns the decoded configuration without validating it.
	SkipValidation bool
}

// Load reads, expands, decodes and validates the configuration file at path.
func Load(path string, optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{EnvFiles: DefaultEnvFiles}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := LoadEnvFiles(opts.EnvFiles...); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = filepath.Dir(abs)

	if opts.SkipValidation {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid configuration:\n%w", path, err)
	}

	return cfg, nil
}

// Parse decodes a YAML document into a Config with defaults applied.
// Environment references are expanded; inline tool schemas keep their
// property order.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := &Config{}
	if err := decode(expandValue(raw), cfg); err != nil {
		return nil, err
	}

	for i, s := range inlineSchemas(&root) {
		if i < len(cfg.Tools) && s != nil {
			cfg.Tools[i].Schema = s
		}
	}

	cfg.SetDefaults()

	return cfg, nil
}

func decode(input any, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	return nil
}

// inlineSchemas returns the ordered form of tools[i].schema, by index.
func inlineSchemas(root *yaml.Node) []any {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	tools := mappingValue(doc, "tools")
	if tools == nil || tools.Kind != yaml.SequenceNode {
		return nil
	}

	out := make([]any, len(tools.Content))
	for i, t := range tools.Content {
		if s := mappingValue(t, "schema"); s != nil {
			out[i] = nodeValue(s)
		}
	}

	return out
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}

	return nil
}

// nodeValue converts a YAML node into a canonical value; mappings become
// ordered maps.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := canonical.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			m.Set(n.Content[i].Value, nodeValue(n.Content[i+1]))
		}
		return m
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			out[i] = nodeValue(c)
		}
		return out
	}

	switch n.Tag {
	case "!!null":
		return nil
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return b
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	}

	return expandEnv(n.Value)
}

// LoadSchema returns the parameter schema of a tool: the inline schema, the
// schema file, or a single required "query" string.
func (c *Config) LoadSchema(t ToolConfig) (schema.Schema, error) {
	switch {
	case t.Schema != nil:
		s, err := schema.FromValue(t.Schema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		return s, nil
	case t.SchemaFile != "":
		return loadSchemaFile(c.SchemaPath(t))
	default:
		return schema.Fields(schema.Field{
			Name:        "query",
			Description: "The request for the agent",
			Validator:   schema.String(),
		}), nil
	}
}

func loadSchemaFile(path string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		s, err := schema.FromJSON(bytes.TrimSpace(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}

	v := nodeValue(&root)
	if v == nil {
		return nil, fmt.Errorf("%s: empty schema document", path)
	}

	s, err := schema.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}
