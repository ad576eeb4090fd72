// Package outputguard keeps diagnostic output produced by agents away from the
// protocol stream.
//
// A Channel wraps the process-wide diagnostic writer. Each invocation opens a
// Scope with Isolate; the scope owns a private buffer reachable through the
// returned context (Writer, Printf). While at least one scope is open, writes
// that reach the shared Channel directly are quarantined instead of being
// forwarded, so they can neither corrupt the protocol stream nor leak into
// another invocation. The original target is used again once the last scope
// closes.
package outputguard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Channel is a shared diagnostic writer that understands isolation scopes.
// It is safe for concurrent use.
type Channel struct {
	mu          sync.Mutex
	target      io.Writer
	active      int
	quarantined int64
}

// Default is the process-wide diagnostic channel. It writes to stderr.
var Default = New(os.Stderr)

// New creates a Channel forwarding to target.
func New(target io.Writer) *Channel {
	if target == nil {
		target = io.Discard
	}

	return &Channel{target: target}
}

// Write forwards p to the target, or quarantines it while scopes are open.
func (c *Channel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active > 0 {
		c.quarantined += int64(len(p))
		return len(p), nil
	}

	return c.target.Write(p)
}

// Active returns the number of open scopes.
func (c *Channel) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

// Quarantined returns the number of bytes discarded while scopes were open.
func (c *Channel) Quarantined() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.quarantined
}

// Isolate opens a scope and returns a context carrying it. Callers must
// Close the scope, typically with defer.
func (c *Channel) Isolate(ctx context.Context) (context.Context, *Scope) {
	c.mu.Lock()
	c.active++
	c.mu.Unlock()

	s := &Scope{ch: c}

	return context.WithValue(ctx, scopeKey{}, s), s
}

func (c *Channel) release() {
	c.mu.Lock()
	c.active--
	c.mu.Unlock()
}

type scopeKey struct{}

// Scope is the private output sink of one invocation.
type Scope struct {
	ch   *Channel
	once sync.Once

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p to the scope's buffer.
func (s *Scope) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buf.Write(p)
}

// Captured returns everything written to the scope so far.
func (s *Scope) Captured() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buf.String()
}

// Len returns the number of captured bytes.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buf.Len()
}

// Close ends the scope. It is idempotent.
func (s *Scope) Close() {
	s.once.Do(s.ch.release)
}

// ScopeFrom returns the scope stored in ctx, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}

// Writer returns the output sink for ctx: the invocation's scope when one is
// open, the Default channel otherwise.
func Writer(ctx context.Context) io.Writer {
	if s, ok := ScopeFrom(ctx); ok {
		return s
	}

	return Default
}

// Printf writes formatted diagnostics to Writer(ctx).
func Printf(ctx context.Context, format string, args ...any) {
	_, _ = fmt.Fprintf(Writer(ctx), format, args...)
}

// Println writes diagnostics followed by a newline to Writer(ctx).
func Println(ctx context.Context, args ...any) {
	_, _ = fmt.Fprintln(Writer(ctx), args...)
}
