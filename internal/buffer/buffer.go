// Package buffer implements the composition buffer: a single-slot state
// machine that accumulates IME-classified text, arms an idle timer, and
// emits the settled text either on timeout or on an explicit flush.
package buffer

import (
	"sync"
	"time"
)

// DefaultTimeout is the idle gap after which a composing buffer flushes
// itself. Human IME bursts settle in well under 100ms; this sits below
// perceptual latency while comfortably above intra-burst spacing.
const DefaultTimeout = 50 * time.Millisecond

// Sink receives settled text. Both sinks are supplied at construction so
// a caller can route flushed and regular input differently (e.g. for
// tracing); the proxy points both at the same PTY writer.
type Sink func(text string) error

// Buffer is the composition state machine described by the spec. All
// state transitions are guarded by mu so Process/Flush/Backspace/Clear
// are safe to call from a single owning goroutine while the idle timer
// fires on its own goroutine.
//
// The timer does not call onFlush directly. It signals fired, a buffered
// channel drained by the owning goroutine, which then calls Flush()
// itself. This keeps every sink invocation on one logical task, matching
// the single-threaded cooperative event loop the supervisor implements.
type Buffer struct {
	mu        sync.Mutex
	timeout   time.Duration
	composing bool
	runes     []rune
	timer     *time.Timer
	onFlush   Sink
	onRegular Sink
	fired     chan struct{}
}

// New constructs a Buffer with the given idle timeout and sinks. A
// non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration, onFlush, onRegular Sink) *Buffer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Buffer{
		timeout:   timeout,
		onFlush:   onFlush,
		onRegular: onRegular,
		fired:     make(chan struct{}, 1),
	}
}

// Timeouts returns the channel the owning goroutine should drain and, on
// each receive, call Flush. A receive here is observationally equivalent
// to an external Flush call at that instant.
func (b *Buffer) Timeouts() <-chan struct{} {
	return b.fired
}

// Process accepts a chunk and its pre-computed classification. IME text
// is appended and the idle timer is (re)armed. Non-IME text first
// triggers a flush of any pending composition, then is handed to
// onRegular immediately.
func (b *Buffer) Process(text string, isIME bool) error {
	if isIME {
		b.mu.Lock()
		b.runes = append(b.runes, []rune(text)...)
		b.composing = true
		b.armLocked()
		b.mu.Unlock()
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}
	return b.onRegular(text)
}

func (b *Buffer) armLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.timeout, func() {
		select {
		case b.fired <- struct{}{}:
		default:
		}
	})
}

// Flush emits any buffered text via onFlush and disarms the timer. It is
// idempotent and safe to call on an empty buffer.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	text, empty := b.drainLocked()
	b.mu.Unlock()
	if empty {
		return nil
	}
	return b.onFlush(text)
}

// drainLocked cancels the timer and empties the buffer, returning the
// settled text and whether the buffer was already empty. Caller holds mu.
func (b *Buffer) drainLocked() (string, bool) {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.composing = false
	if len(b.runes) == 0 {
		return "", true
	}
	text := string(b.runes)
	b.runes = b.runes[:0]
	return text, false
}

// Backspace removes the last code point from the buffer, if any, and
// reports whether it did. It never operates on byte counts.
func (b *Buffer) Backspace() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.runes) == 0 {
		return false
	}
	b.runes = b.runes[:len(b.runes)-1]
	if len(b.runes) == 0 {
		b.composing = false
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
	}
	return true
}

// Clear discards any buffered text without emitting it and disarms the
// timer. Used on teardown, where the child is about to die.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.runes = b.runes[:0]
	b.composing = false
}

// IsComposing reports whether the buffer currently holds unflushed text.
func (b *Buffer) IsComposing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.composing
}

// Peek returns the buffer's current contents without consuming them.
func (b *Buffer) Peek() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.runes)
}
