package supervise

import (
	"bytes"
	"sync"
)

// syncBuffer is an append-only buffer safe for one writer goroutine and
// concurrent snapshot readers. The supervisor may return before os/exec's
// copy goroutines have finished when a killed process is never reaped.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Bytes returns a copy of everything written so far.
func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
