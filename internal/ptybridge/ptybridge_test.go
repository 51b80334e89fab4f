package ptybridge

import (
	"os"
	"testing"
)

// The supervisor's tests replace Bridge with a fake PTY, and a real PTY
// can't be spawned in this environment. These tests cover the pure
// logic that doesn't require xpty.

func TestExitInfo_ZeroValueHasNoSignal(t *testing.T) {
	var info ExitInfo
	if info.Signal != nil {
		t.Errorf("zero ExitInfo.Signal = %v, want nil", info.Signal)
	}
	if info.Code != 0 {
		t.Errorf("zero ExitInfo.Code = %d, want 0", info.Code)
	}
}

func TestExitInfo_CarriesSignal(t *testing.T) {
	info := ExitInfo{Code: 0, Signal: os.Interrupt}
	if info.Signal != os.Interrupt {
		t.Errorf("ExitInfo.Signal = %v, want os.Interrupt", info.Signal)
	}
}

// This blank assignment is a compile-time assertion that *Bridge implements
// the PTY interface the supervisor depends on.
var _ PTY = (*Bridge)(nil)
