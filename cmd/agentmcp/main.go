// Command agentmcp publishes model-backed agents described in a YAML file as
// MCP tools.
//
// Usage:
//
//	agentmcp serve --config agentmcp.yaml
//	agentmcp serve --transport http --address 127.0.0.1:8080
//	agentmcp tools --config agentmcp.yaml
//	agentmcp validate --config agentmcp.yaml
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/hupe1980/agentmcp/config"
	"github.com/hupe1980/agentmcp/logging"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Serve the configured tools over MCP."`
	Tools    ToolsCmd    `cmd:"" help:"List the configured tools and their schemas."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string   `short:"c" help:"Path to config file." type:"path" default:"agentmcp.yaml" env:"AGENTMCP_CONFIG"`
	EnvFile   []string `name:"env-file" help:"Dotenv files loaded before the config." default:".env.local,.env"`
	LogLevel  string   `help:"Log level (debug, info, warn, error); overrides the config."`
	LogFormat string   `help:"Log format (json, text); overrides the config."`
}

// loadConfig reads the configuration and applies logging overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config, func(o *config.LoadOptions) {
		o.EnvFiles = c.EnvFile
		o.SkipValidation = true
	})
	if err != nil {
		return nil, err
	}

	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}

	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}

	return cfg, nil
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg config.LogConfig) (*logging.AdapterLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    os.Stderr,
		AddSource: cfg.AddSource,
		Component: "agentmcp",
	}), nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run prints the module version.
func (c *VersionCmd) Run() error {
	fmt.Printf("agentmcp version %s\n", version())
	return nil
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentmcp"),
		kong.Description("Expose agents as Model Context Protocol tools."),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
