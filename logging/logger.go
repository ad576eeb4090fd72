package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, warn, error) into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface for agentmcp.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// AdapterLogger wraps slog.Logger adding contextual cloning helpers and
// tool call helpers. It is cheap to copy via With* methods.
type AdapterLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
}

var _ Logger = (*AdapterLogger)(nil)

// LoggerConfig configures construction of an AdapterLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration writing to stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr, CustomAttrs: map[string]any{}}
}

// NewLogger builds an AdapterLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *AdapterLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	ctx := make(map[string]any, len(cfg.CustomAttrs))
	for k, v := range cfg.CustomAttrs {
		ctx[k] = v
	}

	return &AdapterLogger{logger: slog.New(handler), level: cfg.Level, context: ctx, component: cfg.Component}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *AdapterLogger) clone() *AdapterLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *AdapterLogger) WithContext(key string, value any) *AdapterLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (server, adapter, model, etc.).
func (l *AdapterLogger) WithComponent(c string) *AdapterLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// Slog returns the underlying *slog.Logger.
func (l *AdapterLogger) Slog() *slog.Logger { return l.logger }

func (l *AdapterLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+1)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *AdapterLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.buildAttrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *AdapterLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *AdapterLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *AdapterLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *AdapterLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// ErrorWithStack logs an error plus a runtime stack snapshot.
func (l *AdapterLogger) ErrorWithStack(err error, msg string, args ...any) {
	if l.level > LogLevelError {
		return
	}
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	args = append(args, "error", err.Error(), "error_type", fmt.Sprintf("%T", err), "stack_trace", string(stack[:n]))
	l.log(slog.LevelError, true, msg, args...)
}

// ToolCall describes one finished tool invocation.
type ToolCall struct {
	Tool         string
	InvocationID string
	Duration     time.Duration
	Outcome      string // success, validation_failure, ...
	Err          error
	OutputBytes  int // diagnostic output captured from the agent
}

// LogToolCall records execution details for a tool invocation.
func (l *AdapterLogger) LogToolCall(c ToolCall) {
	args := []any{
		"tool_name", c.Tool,
		"invocation_id", c.InvocationID,
		"duration", c.Duration,
		"outcome", c.Outcome,
		"success", c.Err == nil,
	}
	if c.OutputBytes > 0 {
		args = append(args, "captured_output_bytes", c.OutputBytes)
	}
	if c.Err != nil {
		args = append(args, "error", c.Err.Error())
		l.Warn("Tool execution failed", args...)
		return
	}
	l.Info("Tool execution completed", args...)
}

// LogModelCall records model call latency, token usage and success.
func (l *AdapterLogger) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	args := []any{"model", model, "token_count", tokens, "duration", dur, "success", err == nil}
	if err != nil {
		args = append(args, "error", err.Error())
		l.Error("Model call failed", args...)
		return
	}
	l.Info("Model call completed", args...)
}

// ToolCallLogger is implemented by loggers with a dedicated tool call helper.
type ToolCallLogger interface {
	LogToolCall(c ToolCall)
}

// LogToolCall writes c through logger, using its dedicated helper when present.
func LogToolCall(logger Logger, c ToolCall) {
	if tl, ok := logger.(ToolCallLogger); ok {
		tl.LogToolCall(c)
		return
	}

	args := []any{"tool_name", c.Tool, "invocation_id", c.InvocationID, "duration", c.Duration, "outcome", c.Outcome}
	if c.Err != nil {
		logger.Warn("Tool execution failed", append(args, "error", c.Err.Error())...)
		return
	}
	logger.Info("Tool execution completed", args...)
}

// ModelCallLogger is implemented by loggers with a dedicated model call helper.
type ModelCallLogger interface {
	LogModelCall(model string, tokens int, dur time.Duration, err error)
}

// LogModelCall writes a model call entry through logger.
func LogModelCall(logger Logger, model string, tokens int, dur time.Duration, err error) {
	if ml, ok := logger.(ModelCallLogger); ok {
		ml.LogModelCall(model, tokens, dur, err)
		return
	}

	args := []any{"model", model, "token_count", tokens, "duration", dur}
	if err != nil {
		logger.Error("Model call failed", append(args, "error", err.Error())...)
		return
	}
	logger.Info("Model call completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new AdapterLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *AdapterLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
