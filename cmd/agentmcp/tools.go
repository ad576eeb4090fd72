package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hupe1980/agentmcp/config"
)

// ToolsCmd lists the configured tools.
type ToolsCmd struct {
	Schema bool `help:"Print each tool's input schema."`
}

// Run prints one line per tool.
func (c *ToolsCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	return listTools(os.Stdout, cfg, c.Schema)
}

func listTools(out io.Writer, cfg *config.Config, withSchema bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tFAMILY\tPROVIDER\tMODEL\tDESCRIPTION")
	for _, t := range cfg.Tools {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Family, t.Model.Provider, t.Model.Name, t.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !withSchema {
		return nil
	}

	for _, t := range cfg.Tools {
		s, err := cfg.LoadSchema(t)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, s.JSONSchema(), "", "  "); err != nil {
			return fmt.Errorf("tool %s: %w", t.Name, err)
		}
		_, _ = fmt.Fprintf(out, "\n%s:\n%s\n", t.Name, buf.String())
	}

	return nil
}
