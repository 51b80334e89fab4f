// Package supervisor wires the terminal's raw input into the
// classifier -> router -> buffer chain, forwards buffer emissions to the
// PTY, installs signal and lifecycle handlers, and guarantees terminal
// mode restoration on every exit path.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/imeproxy/terminal-ime-proxy/internal/buffer"
	"github.com/imeproxy/terminal-ime-proxy/internal/classify"
	"github.com/imeproxy/terminal-ime-proxy/internal/ptybridge"
	"github.com/imeproxy/terminal-ime-proxy/internal/rawterm"
	"github.com/imeproxy/terminal-ime-proxy/internal/router"
	"github.com/imeproxy/terminal-ime-proxy/internal/trace"
)

// Options configures a proxy run.
type Options struct {
	Command string
	Args    []string
	Timeout time.Duration
	Debug   bool
	Dir     string
	Env     []string

	// Stdin/Stdout let tests substitute the controlling terminal. Nil
	// means the real os.Stdin/os.Stdout.
	Stdin  *os.File
	Stdout io.Writer

	// spawn and newTerminal are substituted in tests to avoid a real PTY
	// and a real controlling terminal.
	spawn       func(ctx context.Context, name string, args []string, cols, rows int, dir string, env []string) (ptybridge.PTY, error)
	newTerminal func(tty *os.File) (rawTerminal, error)
}

// rawTerminal is the subset of *rawterm.Terminal the supervisor needs,
// abstracted so tests can substitute a fake without a real tty.
type rawTerminal interface {
	Size() (cols, rows int)
	Chunks() <-chan []byte
	Restore() error
}

func (o *Options) resolve() {
	if o.Timeout <= 0 {
		o.Timeout = buffer.DefaultTimeout
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.spawn == nil {
		o.spawn = func(ctx context.Context, name string, args []string, cols, rows int, dir string, env []string) (ptybridge.PTY, error) {
			return ptybridge.Spawn(ctx, name, args, cols, rows, dir, env)
		}
	}
	if o.newTerminal == nil {
		o.newTerminal = func(tty *os.File) (rawTerminal, error) {
			return rawterm.Open(tty)
		}
	}
}

// Run starts the proxy and blocks until the child exits or a fatal
// signal is received. It returns the exit code the host process should
// use.
func Run(opts Options) (int, error) {
	opts.resolve()
	tr := trace.New(opts.Debug)

	term, err := opts.newTerminal(opts.Stdin)
	if err != nil {
		return 1, fmt.Errorf("enter raw mode: %w", err)
	}

	var teardownOnce sync.Once
	teardown := func() {
		teardownOnce.Do(func() {
			if err := term.Restore(); err != nil {
				tr.PTYLifecycle("terminal-restore-failed", err.Error())
			}
		})
	}
	defer teardown()

	cols, rows := term.Size()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pty, err := opts.spawn(ctx, opts.Command, opts.Args, cols, rows, opts.Dir, opts.Env)
	if err != nil {
		return 1, fmt.Errorf("spawn child: %w", err)
	}
	tr.PTYLifecycle("spawn", fmt.Sprintf("%s cols=%d rows=%d", opts.Command, cols, rows))

	buf := buffer.New(opts.Timeout, sinkWithTrace(pty.Write, tr, true), sinkWithTrace(pty.Write, tr, false))

	resizeCh := make(chan os.Signal, 1)
	if len(rawterm.ResizeSignals) > 0 {
		signal.Notify(resizeCh, rawterm.ResizeSignals...)
		defer signal.Stop(resizeCh)
	}

	sigCh := make(chan os.Signal, 1)
	if len(rawterm.FatalSignals) > 0 {
		signal.Notify(sigCh, rawterm.FatalSignals...)
		defer signal.Stop(sigCh)
	}

	loop := &eventLoop{
		term:     term,
		pty:      pty,
		buf:      buf,
		tracer:   tr,
		stdout:   opts.Stdout,
		resizeCh: resizeCh,
		sigCh:    sigCh,
		teardown: teardown,
	}
	code := loop.run()
	tr.PTYLifecycle("teardown", fmt.Sprintf("exit=%d", code))
	return code, nil
}

// sinkWithTrace adapts a PTY write into a buffer.Sink, tracing flush vs
// regular delivery.
func sinkWithTrace(write func([]byte) (int, error), tr trace.Tracer, isFlush bool) buffer.Sink {
	return func(text string) error {
		if isFlush {
			tr.Flush(text)
		}
		_, err := write([]byte(text))
		return err
	}
}

// eventLoop is the single logical task described by the concurrency
// model: every state transition on buf and every write to pty happens
// from run's goroutine only.
type eventLoop struct {
	term     rawTerminal
	pty      ptybridge.PTY
	buf      *buffer.Buffer
	tracer   trace.Tracer
	stdout   io.Writer
	resizeCh chan os.Signal
	sigCh    chan os.Signal
	teardown func()
}

func (l *eventLoop) run() int {
	inputCh := l.term.Chunks()
	outputCh := l.pty.Output()
	exitCh := l.pty.Exit()
	timeoutCh := l.buf.Timeouts()

	for {
		select {
		case chunk, ok := <-inputCh:
			if !ok {
				inputCh = nil
				continue
			}
			l.handleInput(chunk)

		case data, ok := <-outputCh:
			if !ok {
				outputCh = nil
				continue
			}
			_, _ = l.stdout.Write(data)

		case <-timeoutCh:
			if err := l.buf.Flush(); err != nil {
				l.tracer.PTYLifecycle("write-failed", err.Error())
			}

		case <-l.resizeCh:
			cols, rows := l.term.Size()
			if err := l.pty.Resize(cols, rows); err != nil {
				l.tracer.PTYLifecycle("resize-failed", err.Error())
			} else {
				l.tracer.PTYLifecycle("resize", fmt.Sprintf("cols=%d rows=%d", cols, rows))
			}

		case info, ok := <-exitCh:
			if !ok {
				return 0
			}
			l.buf.Clear()
			l.teardown()
			_ = l.pty.Kill()
			if info.Signal != nil {
				return rawterm.ExitCodeForSignal(info.Signal)
			}
			return info.Code

		case sig := <-l.sigCh:
			l.buf.Clear()
			l.teardown()
			_ = l.pty.Kill()
			return rawterm.ExitCodeForSignal(sig)
		}
	}
}

func (l *eventLoop) handleInput(chunk []byte) {
	consumed, err := router.Route(chunk, l.buf, l.forward)
	if err != nil {
		l.tracer.PTYLifecycle("write-failed", err.Error())
	}
	if consumed {
		l.tracer.SpecialKey(specialKeyName(chunk), true)
		return
	}

	if !utf8.Valid(chunk) {
		// MalformedUTF8: fail open, forward verbatim, never classify.
		if _, err := l.pty.Write(chunk); err != nil {
			l.tracer.PTYLifecycle("write-failed", err.Error())
		}
		return
	}

	text := string(chunk)
	result := classify.Classify(text)
	l.tracer.Classify(text, result)
	if err := l.buf.Process(text, result.IME); err != nil {
		l.tracer.PTYLifecycle("write-failed", err.Error())
	}
	l.tracer.BufferMutation("process", len([]rune(l.buf.Peek())))
}

func (l *eventLoop) forward(p []byte) error {
	_, err := l.pty.Write(p)
	return err
}

func specialKeyName(chunk []byte) string {
	if len(chunk) == 0 {
		return "none"
	}
	switch {
	case len(chunk) == 1 && chunk[0] == 0x03:
		return "interrupt"
	case len(chunk) == 1 && chunk[0] == 0x04:
		return "eof"
	case len(chunk) == 1 && (chunk[0] == 0x7F || chunk[0] == 0x08):
		return "backspace"
	case len(chunk) == 1 && (chunk[0] == 0x0D || chunk[0] == 0x0A):
		return "enter"
	case chunk[0] == 0x1B:
		return "escape"
	default:
		return "none"
	}
}
