// Package logging provides a minimal logging interface and adapters for agentmcp.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that adapters, the server and model-backed agents use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - AdapterLogger with tool call and model call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	app := agentmcp.New(func(o *agentmcp.Options) { o.Logger = logger })
//
// Every logger built by this package writes to stderr unless configured otherwise.
// Stdout carries protocol frames when serving over stdio and must stay clean.
package logging
