// Package rawterm owns the controlling terminal's raw-mode lifecycle and
// geometry, and reads raw input bytes from it for direct forwarding.
// Adapted from the byte-forwarding rationale of a raw /dev/tty reader:
// here the proxy owns stdin outright, so it reads os.Stdin directly
// rather than opening /dev/tty to work around another consumer.
package rawterm

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultCols and DefaultRows are used when the controlling terminal's
// size cannot be determined.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Terminal owns raw-mode entry/restore for the process's controlling
// terminal and streams raw input chunks to a channel.
type Terminal struct {
	tty     *os.File
	fd      int
	state   *term.State
	chunks  chan []byte
	stopped chan struct{}
}

// Open puts the given terminal file (normally os.Stdin) into raw mode,
// recording its prior state for restoration, and starts a background
// reader goroutine that forwards raw byte chunks on Chunks().
func Open(tty *os.File) (*Terminal, error) {
	fd := int(tty.Fd())

	state, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("get terminal state: %w", err)
	}

	if _, err := term.MakeRaw(fd); err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}

	t := &Terminal{
		tty:     tty,
		fd:      fd,
		state:   state,
		chunks:  make(chan []byte, 64),
		stopped: make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// Size returns the terminal's current columns and rows, falling back to
// DefaultCols x DefaultRows if the geometry cannot be determined.
func (t *Terminal) Size() (cols, rows int) {
	cols, rows, err := term.GetSize(t.fd)
	if err != nil || cols <= 0 || rows <= 0 {
		return DefaultCols, DefaultRows
	}
	return cols, rows
}

// Chunks returns the channel of raw input byte chunks read from the
// terminal. The channel is closed when the reader hits EOF, or, after
// Restore is called, as soon as the read in progress returns.
func (t *Terminal) Chunks() <-chan []byte {
	return t.chunks
}

func (t *Terminal) readLoop() {
	defer close(t.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := t.tty.Read(buf)
		select {
		case <-t.stopped:
			return
		default:
		}
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case t.chunks <- data:
			case <-t.stopped:
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			select {
			case <-t.stopped:
				return
			default:
				continue
			}
		}
	}
}

// Restore returns the terminal to the mode it was in before Open, and is
// idempotent: calling it more than once, or after a failed Open, is safe.
func (t *Terminal) Restore() error {
	if t == nil || t.state == nil {
		return nil
	}
	select {
	case <-t.stopped:
	default:
		close(t.stopped)
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}
