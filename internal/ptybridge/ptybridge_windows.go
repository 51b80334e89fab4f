//go:build windows

package ptybridge

import "os/exec"

// setControllingTTY is a no-op on Windows: xpty's ConPTY backend attaches
// the child to the console directly, with no controlling-terminal
// syscall attributes to set.
func setControllingTTY(cmd *exec.Cmd) {}
