// Package output renders command results in text, markdown, or JSON. Mode
// "auto" picks text on a terminal and markdown when piped, so scripted use
// gets stable output without flags.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode selects the render format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes formatted command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. An empty or unknown mode falls back to
// auto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: NewStyles(),
	}
}

// EffectiveMode resolves auto to a concrete mode.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Styles exposes the lipgloss styles for callers that render custom output.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Out returns the underlying stdout writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Println writes a plain line to stdout.
func (r *Renderer) Println(s string) {
	fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// Success prints a highlighted success line.
func (r *Renderer) Success(s string) {
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.out, r.styles.Success.Render("✓ "+s))
		return
	}
	fmt.Fprintln(r.out, "✓ "+s)
}

// Warning prints a warning line to stderr.
func (r *Renderer) Warning(s string) {
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+s))
		return
	}
	fmt.Fprintln(r.errOut, "! "+s)
}

// Error prints an error line to stderr.
func (r *Renderer) Error(s string) {
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+s))
		return
	}
	fmt.Fprintln(r.errOut, "✗ "+s)
}

// StatusLine prints an aligned "label: status" line with an optional detail.
func (r *Renderer) StatusLine(label, status, detail string) {
	icon := "•"
	style := r.styles.Dim
	switch status {
	case "success", "pass", "active", "ok":
		icon, style = "✓", r.styles.Success
	case "warn", "inactive":
		icon, style = "!", r.styles.Warning
	case "error", "fail", "broken":
		icon, style = "✗", r.styles.Error
	}

	line := fmt.Sprintf("%s %-30s %s", icon, label, status)
	if detail != "" {
		line += "  " + detail
	}
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.out, style.Render(line))
		return
	}
	fmt.Fprintln(r.out, line)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders a table in the effective mode: go-pretty boxes on a
// terminal, pipe-delimited markdown otherwise.
func (r *Renderer) Table(header []string, rows [][]string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.markdownTable(header, rows)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	t.Render()
}

func (r *Renderer) markdownTable(header []string, rows [][]string) {
	fmt.Fprintln(r.out, "| "+strings.Join(header, " | ")+" |")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintln(r.out, "| "+strings.Join(seps, " | ")+" |")
	for _, row := range rows {
		fmt.Fprintln(r.out, "| "+strings.Join(row, " | ")+" |")
	}
}
