package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/agentmcp/config"
)

// ValidateCmd checks the configuration and every tool schema.
type ValidateCmd struct{}

// Run reports the first invalid section or confirms the file is valid.
func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	return validate(os.Stdout, cli.Config, cfg)
}

func validate(out io.Writer, path string, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s is invalid:\n%w", path, err)
	}

	for _, t := range cfg.Tools {
		if _, err := cfg.LoadSchema(t); err != nil {
			return fmt.Errorf("%s is invalid: %w", path, err)
		}
	}

	_, _ = fmt.Fprintf(out, "%s is valid (%d tools)\n", path, len(cfg.Tools))

	return nil
}
