package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/agentmcp/logging"
	"github.com/hupe1980/agentmcp/outputguard"
)

// Transport names a wire transport.
type Transport string

const (
	// TransportStdio speaks newline delimited JSON-RPC on stdin and stdout.
	TransportStdio Transport = "stdio"
	// TransportSSE serves the legacy HTTP+SSE transport.
	TransportSSE Transport = "sse"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP Transport = "http"
)

const shutdownTimeout = 5 * time.Second

// ParseTransport validates a transport name. An empty name selects stdio.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(s); t {
	case "", TransportStdio:
		return TransportStdio, nil
	case TransportSSE, TransportHTTP:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want stdio, sse or http)", s)
	}
}

// ServeOptions configures Serve.
type ServeOptions struct {
	Transport Transport

	// Address is the listen address of the sse and http transports.
	Address string

	// Metrics, when set, is mounted at /metrics next to the MCP endpoint.
	Metrics http.Handler
}

// Serve runs the selected transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, opts ServeOptions) error {
	switch opts.Transport {
	case "", TransportStdio:
		return s.ServeStdio(ctx)
	case TransportSSE, TransportHTTP:
		return s.ServeHTTP(ctx, opts)
	default:
		return fmt.Errorf("unknown transport %q", opts.Transport)
	}
}

// ServeStdio serves over the process's stdin and stdout. os.Stdout is
// redirected to the diagnostic channel for the lifetime of the call so only
// protocol frames reach the real stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	protocolOut, restore, err := outputguard.RedirectStdout(s.channel)
	if err != nil {
		return err
	}
	defer restore()

	return s.ServeIO(ctx, os.Stdin, protocolOut)
}

// ServeIO serves the stdio protocol over arbitrary streams.
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(transportLog{s.logger}, "", 0))

	s.logger.Info("MCP server listening", "transport", TransportStdio, "tools", s.registry.Len())

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// transportLog forwards the stdio server's own error log lines to the
// structured logger. They bypass the diagnostic channel, which drops writes
// while invocations are isolated.
type transportLog struct {
	logger logging.Logger
}

func (w transportLog) Write(p []byte) (int, error) {
	w.logger.Error("MCP transport error", "error", strings.TrimSpace(string(p)))
	return len(p), nil
}

// HTTPHandler returns the http.Handler of an HTTP based transport.
func (s *Server) HTTPHandler(t Transport) (http.Handler, error) {
	switch t {
	case TransportSSE:
		return mcpserver.NewSSEServer(s.mcp), nil
	case TransportHTTP:
		return mcpserver.NewStreamableHTTPServer(s.mcp), nil
	default:
		return nil, fmt.Errorf("transport %q is not served over HTTP", t)
	}
}

// ServeHTTP listens on opts.Address and serves an HTTP transport until ctx
// is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, opts ServeOptions) error {
	handler, err := s.HTTPHandler(opts.Transport)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)

	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	srv := &http.Server{
		Addr:              opts.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("MCP server listening", "transport", opts.Transport, "address", opts.Address, "tools", s.registry.Len())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("MCP server shutting down", "transport", opts.Transport)

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	}
}
