package fingerprint

import (
	"fmt"
	"io"
	"sync"
)

// Progress receives the human-readable status lines the engine emits
// while filtering and matching. The engine calls it from a single
// goroutine. A missing sink changes observability only, never results.
type Progress interface {
	Printf(format string, args ...any)
}

// NopProgress discards all messages.
type NopProgress struct{}

// Printf implements Progress.
func (NopProgress) Printf(string, ...any) {}

// WriterProgress writes each message as one line to W.
type WriterProgress struct {
	W io.Writer
}

// Printf implements Progress.
func (p WriterProgress) Printf(format string, args ...any) {
	fmt.Fprintln(p.W, fmt.Sprintf(format, args...))
}

// MemoryProgress buffers messages for display after the run, e.g. in a
// log pane. Safe for concurrent use.
type MemoryProgress struct {
	mu    sync.Mutex
	lines []string
}

// Printf implements Progress.
func (p *MemoryProgress) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the buffered messages in emission order.
func (p *MemoryProgress) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

// Reset clears the buffer.
func (p *MemoryProgress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = nil
}
