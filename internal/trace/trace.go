// Package trace implements the --debug diagnostic sink. The core invokes
// it on every classification, flush, special-key event, and PTY lifecycle
// event, and on each buffer mutation made by classified input. A
// backspace absorbed by the buffer is traced only as a special-key event,
// and the buffer clear at teardown is not traced. All output goes to
// stderr and only when tracing is enabled, so it never interleaves with
// the child's stdout.
package trace

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/imeproxy/terminal-ime-proxy/internal/classify"
)

// Tracer receives diagnostic events from the classifier, buffer, router,
// and PTY bridge. The no-op implementation is used whenever --debug is
// off, so call sites never need to check a flag themselves.
type Tracer interface {
	Classify(sample string, result classify.Result)
	BufferMutation(event string, codepoints int)
	Flush(text string)
	SpecialKey(name string, consumed bool)
	PTYLifecycle(event, detail string)
}

type noop struct{}

func (noop) Classify(string, classify.Result) {}
func (noop) BufferMutation(string, int)       {}
func (noop) Flush(string)                     {}
func (noop) SpecialKey(string, bool)          {}
func (noop) PTYLifecycle(string, string)      {}

// New returns a Tracer. When debug is false it returns a Tracer whose
// methods are no-ops, so the hot path pays nothing for tracing support.
func New(debug bool) Tracer {
	if !debug {
		return noop{}
	}
	return newLogTracer()
}

type logTracer struct {
	logger    *log.Logger
	sessionID string
	styles    styleSet
}

type styleSet struct {
	classify, buffer, flush, special, pty lipgloss.Style
}

func newLogTracer() *logTracer {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ime-proxy",
	})
	logger.SetLevel(log.DebugLevel)

	profile := colorprofile.Detect(os.Stderr, os.Environ())
	color := profile != colorprofile.NoTTY && profile != colorprofile.Ascii

	styled := func(fg lipgloss.Color) lipgloss.Style {
		s := lipgloss.NewStyle().Bold(true)
		if color {
			s = s.Foreground(fg)
		}
		return s
	}

	return &logTracer{
		logger:    logger,
		sessionID: uuid.NewString(),
		styles: styleSet{
			classify: styled(lipgloss.Color("39")),
			buffer:   styled(lipgloss.Color("214")),
			flush:    styled(lipgloss.Color("42")),
			special:  styled(lipgloss.Color("212")),
			pty:      styled(lipgloss.Color("244")),
		},
	}
}

func (t *logTracer) Classify(sample string, result classify.Result) {
	t.logger.Debug(t.styles.classify.Render("classify"),
		"run", t.sessionID,
		"ime", result.IME,
		"script", result.Script.String(),
		"bytes", len(sample),
	)
}

func (t *logTracer) BufferMutation(event string, codepoints int) {
	t.logger.Debug(t.styles.buffer.Render("buffer"),
		"run", t.sessionID,
		"event", event,
		"codepoints", codepoints,
	)
}

func (t *logTracer) Flush(text string) {
	t.logger.Debug(t.styles.flush.Render("flush"),
		"run", t.sessionID,
		"codepoints", len([]rune(text)),
	)
}

func (t *logTracer) SpecialKey(name string, consumed bool) {
	t.logger.Debug(t.styles.special.Render("special-key"),
		"run", t.sessionID,
		"key", name,
		"consumed", consumed,
	)
}

func (t *logTracer) PTYLifecycle(event, detail string) {
	t.logger.Debug(t.styles.pty.Render("pty"),
		"run", t.sessionID,
		"event", event,
		"detail", detail,
	)
}
