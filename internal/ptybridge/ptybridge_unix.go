//go:build !windows

package ptybridge

import (
	"os/exec"
	"syscall"
)

// setControllingTTY arranges for the PTY slave, once xpty attaches it to
// cmd's stdin, to become the child's controlling terminal. This is
// required for shells and interactive programs that expect job control.
func setControllingTTY(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}
}
