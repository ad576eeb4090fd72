package outputguard

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_ForwardsWithoutScopes(t *testing.T) {
	var target bytes.Buffer
	ch := New(&target)

	_, err := fmt.Fprint(ch, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", target.String())
	assert.Equal(t, int64(0), ch.Quarantined())
}

func TestChannel_QuarantinesWhileScoped(t *testing.T) {
	var target bytes.Buffer
	ch := New(&target)

	ctx, scope := ch.Isolate(context.Background())
	assert.Equal(t, 1, ch.Active())

	_, _ = fmt.Fprint(ch, "stray")
	Printf(ctx, "mine %d", 1)

	assert.Empty(t, target.String())
	assert.Equal(t, int64(5), ch.Quarantined())
	assert.Equal(t, "mine 1", scope.Captured())
	assert.Equal(t, 6, scope.Len())

	scope.Close()
	scope.Close()
	assert.Equal(t, 0, ch.Active())

	_, _ = fmt.Fprint(ch, "after")
	assert.Equal(t, "after", target.String())
}

func TestWriter_FallsBackToDefault(t *testing.T) {
	assert.Same(t, Default, Writer(context.Background()))

	_, ok := ScopeFrom(context.Background())
	assert.False(t, ok)
}

func TestScope_ClosedOnPanic(t *testing.T) {
	ch := New(nil)

	func() {
		defer func() { _ = recover() }()

		_, scope := ch.Isolate(context.Background())
		defer scope.Close()

		panic("boom")
	}()

	assert.Equal(t, 0, ch.Active())
}

func TestScope_ConcurrentIsolation(t *testing.T) {
	var target bytes.Buffer
	ch := New(&target)

	const n = 32

	var (
		wg       sync.WaitGroup
		captured [n]string
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			ctx, scope := ch.Isolate(context.Background())
			defer scope.Close()

			<-start
			for j := 0; j < 10; j++ {
				Printf(ctx, "[%d]", i)
				_, _ = fmt.Fprint(ch, "leak")
			}
			captured[i] = scope.Captured()
		}(i)
	}

	close(start)
	wg.Wait()

	for i, got := range captured {
		want := ""
		for j := 0; j < 10; j++ {
			want += fmt.Sprintf("[%d]", i)
		}
		assert.Equal(t, want, got)
	}

	assert.Empty(t, target.String())
	assert.Equal(t, 0, ch.Active())
	assert.Equal(t, int64(n*10*len("leak")), ch.Quarantined())
}

func TestRedirectStdout(t *testing.T) {
	var target bytes.Buffer
	ch := New(&target)

	original := os.Stdout

	protocolOut, restore, err := RedirectStdout(ch)
	require.NoError(t, err)
	assert.Same(t, original, protocolOut)
	assert.NotSame(t, original, os.Stdout)

	fmt.Println("stray print")

	restore()
	restore()

	assert.Same(t, original, os.Stdout)
	assert.Equal(t, "stray print\n", target.String())
}
