// Package ptybridge spawns a child program under a pseudo-terminal,
// pipes its output, forwards resize events, and reports exit status.
package ptybridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	xpty "github.com/charmbracelet/x/xpty"
)

// ExitInfo is reported exactly once, when the child terminates.
type ExitInfo struct {
	Code   int
	Signal os.Signal
}

// PTY is the interface the supervisor drives. Bridge is the xpty-backed
// implementation; tests substitute a fake so the supervisor's event loop
// can be exercised without a real pseudo-terminal.
type PTY interface {
	Write(p []byte) (int, error)
	Output() <-chan []byte
	Exit() <-chan ExitInfo
	Resize(cols, rows int) error
	Kill() error
}

// Bridge is the xpty-backed PTY implementation.
type Bridge struct {
	pty    xpty.Pty
	cmd    *exec.Cmd
	output chan []byte
	exit   chan ExitInfo

	mu     sync.Mutex
	killed bool
}

// Spawn starts name with args under a new PTY of the given geometry,
// terminal type xterm-256color, and the given working directory and
// environment (an empty dir or nil env inherits the current process's).
func Spawn(ctx context.Context, name string, args []string, cols, rows int, dir string, env []string) (*Bridge, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(append([]string{}, env...), "TERM=xterm-256color")
	setControllingTTY(cmd)

	ptyInstance, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("allocate pty: %w", err)
	}

	if err := ptyInstance.Start(cmd); err != nil {
		_ = ptyInstance.Close()
		return nil, fmt.Errorf("start child: %w", err)
	}

	b := &Bridge{
		pty:    ptyInstance,
		cmd:    cmd,
		output: make(chan []byte, 64),
		exit:   make(chan ExitInfo, 1),
	}

	go b.pumpOutput()
	go b.waitExit(ctx)

	return b, nil
}

func (b *Bridge) pumpOutput() {
	defer close(b.output)
	buf := make([]byte, 4096)
	for {
		n, err := b.pty.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			b.output <- data
		}
		if err != nil {
			return
		}
	}
}

func (b *Bridge) waitExit(ctx context.Context) {
	defer func() {
		// xpty.WaitProcess can return before cmd.Wait() has populated
		// ProcessState if ctx is cancelled early; recover rather than
		// let a nil ProcessState.Sys() panic in this background goroutine.
		if r := recover(); r != nil {
			b.exit <- ExitInfo{Code: 1}
		}
	}()

	err := xpty.WaitProcess(ctx, b.cmd)
	info := ExitInfo{}
	if b.cmd.ProcessState != nil {
		info.Code = b.cmd.ProcessState.ExitCode()
		if ws, ok := b.cmd.ProcessState.Sys().(interface{ Signaled() bool }); ok && ws.Signaled() {
			if signaled, ok := b.cmd.ProcessState.Sys().(interface{ Signal() syscall.Signal }); ok {
				info.Signal = signaled.Signal()
			}
		}
	} else if err != nil {
		info.Code = 1
	}
	b.exit <- info
}

// Write writes p to the PTY master. Short writes are buffered by the OS
// and treated as success, per the no-blocking-write model.
func (b *Bridge) Write(p []byte) (int, error) {
	return b.pty.Write(p)
}

// Output returns the channel of raw output chunks read from the child.
// It is closed when the child's output stream ends.
func (b *Bridge) Output() <-chan []byte {
	return b.output
}

// Exit reports the child's exit status exactly once.
func (b *Bridge) Exit() <-chan ExitInfo {
	return b.exit
}

// Resize propagates a geometry change to the PTY.
func (b *Bridge) Resize(cols, rows int) error {
	return b.pty.Resize(cols, rows)
}

// Kill terminates the child and releases the PTY. Idempotent.
func (b *Bridge) Kill() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.killed {
		return nil
	}
	b.killed = true
	if b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
	}
	return b.pty.Close()
}
