// Package router implements the special-key router: it inspects a raw
// input chunk, before classification, for control bytes that pre-empt or
// bypass the composition buffer.
package router

import "github.com/imeproxy/terminal-ime-proxy/internal/buffer"

const (
	byteInterrupt  = 0x03
	byteEOF        = 0x04
	byteBackspace1 = 0x7F
	byteBackspace2 = 0x08
	byteEnterCR    = 0x0D
	byteEnterLF    = 0x0A
	byteEscape     = 0x1B
)

// Forward writes bytes to the child PTY. It is the same function the
// composition buffer's sinks are built from, so a flush and its
// following forward land on the child in program order.
type Forward func([]byte) error

// Route inspects chunk and, if it matches one of the special-key rules,
// handles it and reports consumed = true. Callers must classify and hand
// the chunk to the buffer themselves when consumed is false. Route holds
// no state of its own beyond the buffer and forward function it is
// given; it is safe to call from a single owning goroutine only, since it
// synchronously flushes and forwards in program order.
func Route(chunk []byte, buf *buffer.Buffer, forward Forward) (consumed bool, err error) {
	switch {
	case len(chunk) == 1 && chunk[0] == byteInterrupt:
		return true, flushThenForward(buf, forward, chunk)

	case len(chunk) == 1 && chunk[0] == byteEOF:
		return true, flushThenForward(buf, forward, chunk)

	case len(chunk) == 1 && (chunk[0] == byteBackspace1 || chunk[0] == byteBackspace2):
		if buf.Backspace() {
			return true, nil
		}
		return true, forward(chunk)

	case len(chunk) == 1 && (chunk[0] == byteEnterCR || chunk[0] == byteEnterLF):
		return true, flushThenForward(buf, forward, chunk)

	case len(chunk) > 0 && chunk[0] == byteEscape:
		return true, flushThenForward(buf, forward, chunk)

	default:
		return false, nil
	}
}

// flushThenForward flushes the buffer, then forwards chunk, so the child
// always receives a completed composition before the control byte that
// triggered it.
func flushThenForward(buf *buffer.Buffer, forward Forward, chunk []byte) error {
	if err := buf.Flush(); err != nil {
		return err
	}
	return forward(chunk)
}
