package outputguard

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// RedirectStdout reserves the process's real stdout for protocol frames.
//
// os.Stdout is replaced by a pipe whose contents are drained into ch, so stray
// prints from agents or libraries end up on the diagnostic channel. The
// returned file is the original stdout and must be handed to the transport.
// It should be called once at process start; restore undoes the swap after
// flushing the pipe.
func RedirectStdout(ch *Channel) (protocolOut *os.File, restore func(), err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	original := os.Stdout
	os.Stdout = w

	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = io.Copy(ch, r)
	}()

	var once sync.Once

	restore = func() {
		once.Do(func() {
			os.Stdout = original
			_ = w.Close()
			<-done
			_ = r.Close()
		})
	}

	return original, restore, nil
}
