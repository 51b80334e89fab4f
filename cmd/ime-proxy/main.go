// Package main implements ime-proxy, a terminal input proxy that repairs
// IME composition for child command-line programs whose own input layer
// drops or reorders multi-byte Unicode sequences.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/imeproxy/terminal-ime-proxy/internal/buffer"
	"github.com/imeproxy/terminal-ime-proxy/internal/supervisor"
)

// Version information (set by goreleaser).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	debugMode bool
	timeoutMs int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ime-proxy [flags] <command> [args...]",
		Short: "Terminal input proxy that repairs IME composition for child programs",
		Long: `ime-proxy - Terminal IME Composition Proxy

Interposes between the controlling terminal and a spawned child program:
it owns the user's terminal, spawns the child under a pseudo-terminal,
classifies incoming keyboard bytes as regular keystrokes or IME
composition fragments, coalesces composition fragments with a short
idle timeout, and delivers settled text to the child as a single atomic
write. Output from the child passes through to the terminal unmodified.`,
		Example: `  # Wrap a program whose IME handling drops CJK/Vietnamese input
  ime-proxy nvim

  # Widen the idle window used to detect a settled composition
  ime-proxy --timeout 80 some-tui

  # Trace classification and buffer decisions to stderr
  ime-proxy --debug -- some-tui --flag-that-looks-like-ours`,
		Version:               fmt.Sprintf("%s\nCommit: %s\nBuilt: %s", version, commit, date),
		Args:                  cobra.MinimumNArgs(1),
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(args[0], args[1:])
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}

	// SetInterspersed(false) stops flag parsing at the first positional
	// argument, so ime-proxy's own --debug/--timeout never collide with
	// flags meant for the wrapped command.
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "trace classification, buffer, and PTY lifecycle events to stderr")
	rootCmd.Flags().IntVarP(&timeoutMs, "timeout", "t", 50, "composition idle timeout in milliseconds (non-positive values fall back to 50; a non-integer value is rejected)")

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
	); err != nil {
		os.Exit(1)
	}
}

func run(command string, args []string) (int, error) {
	timeout := time.Duration(timeoutMs) * time.Millisecond
	if timeoutMs <= 0 {
		timeout = buffer.DefaultTimeout
	}

	return supervisor.Run(supervisor.Options{
		Command: command,
		Args:    args,
		Timeout: timeout,
		Debug:   debugMode,
	})
}
