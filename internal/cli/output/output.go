// Package output renders CLI results in text, markdown, or JSON form.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode selects how command output is rendered.
type Mode string

const (
	// ModeAuto picks text on a terminal and markdown otherwise.
	ModeAuto Mode = "auto"
	// ModeText renders plain text for interactive use.
	ModeText Mode = "text"
	// ModeMarkdown renders markdown for piping into documents.
	ModeMarkdown Mode = "markdown"
	// ModeJSON renders machine-readable JSON.
	ModeJSON Mode = "json"
)

// ValidModes lists the accepted --output values.
var ValidModes = []string{"auto", "text", "markdown", "json"}

// IsValidMode reports whether s names a renderer mode. Empty is valid
// and means auto.
func IsValidMode(s string) bool {
	switch Mode(s) {
	case "", ModeAuto, ModeText, ModeMarkdown, ModeJSON:
		return true
	}
	return false
}

// Renderer writes formatted command output.
type Renderer struct {
	out  io.Writer
	err  io.Writer
	mode Mode
}

// NewRenderer builds a renderer. ModeAuto resolves immediately against
// the output writer, so the mode is stable for the renderer's lifetime.
func NewRenderer(out, err io.Writer, mode Mode) *Renderer {
	if mode == "" || mode == ModeAuto {
		mode = ModeMarkdown
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			mode = ModeText
		}
	}
	return &Renderer{out: out, err: err, mode: mode}
}

// Mode returns the resolved render mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Out returns the underlying output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// ErrOut returns the underlying error writer.
func (r *Renderer) ErrOut() io.Writer { return r.err }

// Println writes a line to the output writer.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to the output writer.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Success reports a completed action.
func (r *Renderer) Success(msg string) {
	switch r.mode {
	case ModeMarkdown:
		_, _ = fmt.Fprintf(r.out, "**%s**\n", msg)
	default:
		_, _ = fmt.Fprintf(r.out, "✓ %s\n", msg)
	}
}

// Warning reports a non-fatal finding on the error writer.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintf(r.err, "warning: %s\n", msg)
}

// Error reports a failure on the error writer.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintf(r.err, "error: %s\n", msg)
}

// Header writes a section heading. Level 1 is the page title.
func (r *Renderer) Header(level int, text string) {
	switch r.mode {
	case ModeMarkdown:
		_, _ = fmt.Fprintf(r.out, "%s %s\n", strings.Repeat("#", level), text)
	default:
		_, _ = fmt.Fprintln(r.out, text)
		if level == 1 {
			_, _ = fmt.Fprintln(r.out, strings.Repeat("=", len(text)))
		}
	}
}

// CodeBlock writes a block of code, fenced in markdown mode.
func (r *Renderer) CodeBlock(lang, body string) {
	if r.mode == ModeMarkdown {
		_, _ = fmt.Fprintf(r.out, "```%s\n%s\n```\n", lang, strings.TrimRight(body, "\n"))
		return
	}
	_, _ = fmt.Fprintln(r.out, body)
}

// StatusLine writes a per-item status row.
func (r *Renderer) StatusLine(name, status, detail string) {
	mark := "✓"
	switch status {
	case "error", "failed":
		mark = "✗"
	case "skipped":
		mark = "-"
	}
	if detail != "" {
		_, _ = fmt.Fprintf(r.out, "  %s %s  %s\n", mark, name, detail)
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", mark, name)
}

// JSON writes v as indented JSON, regardless of mode.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
