// Package output provides mode-aware rendering for partnerlens commands.
//
// Commands render through a Renderer instead of writing to stdout directly.
// The renderer resolves an output mode (text for terminals, markdown for
// pipes, json for machines) and exposes lipgloss styles that degrade to
// plain text when the destination is not a TTY.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// rendererCtxKey is the context key for the command renderer.
type rendererCtxKey struct{}

// RendererKey returns the context key the root command stores the
// renderer under.
func RendererKey() any {
	return rendererCtxKey{}
}

// FromContext returns the renderer stored in ctx, or nil when the root
// command has not run.
func FromContext(ctx context.Context) *Renderer {
	r, _ := ctx.Value(rendererCtxKey{}).(*Renderer)
	return r
}

// OutputMode selects how command results are rendered.
type OutputMode string

const (
	// ModeAuto picks text on a TTY and markdown otherwise.
	ModeAuto OutputMode = "auto"
	// ModeText renders styled terminal output.
	ModeText OutputMode = "text"
	// ModeMarkdown renders plain markdown suitable for piping.
	ModeMarkdown OutputMode = "markdown"
	// ModeJSON renders machine-readable JSON.
	ModeJSON OutputMode = "json"
)

// Mode normalizes a config/flag string into an OutputMode.
func Mode(s string) OutputMode {
	switch s {
	case "text":
		return ModeText
	case "markdown", "md":
		return ModeMarkdown
	case "json":
		return ModeJSON
	default:
		return ModeAuto
	}
}

// Renderer writes command output in the resolved mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles Styles
}

// NewRenderer creates a renderer, detecting TTY state from the writer.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Useful for tests that need deterministic mode resolution.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
	}
	colored := isTTY && termenv.EnvColorProfile() != termenv.Ascii
	r.styles = newStyles(colored)
	return r
}

// EffectiveMode resolves ModeAuto to a concrete mode.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Out returns the renderer's primary writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Styles returns the renderer's style set.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Println writes a line to the primary writer.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted output to the primary writer.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// JSON writes v as indented JSON to the primary writer.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success writes a success line.
func (r *Renderer) Success(s string) {
	_, _ = fmt.Fprintln(r.out, r.styles.Success.Render(s))
}

// Warning writes a warning line to the error writer.
func (r *Renderer) Warning(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render(s))
}

// Error writes an error line to the error writer.
func (r *Renderer) Error(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(s))
}

// StatusLine writes a "<icon> name  note" line for item-by-item progress.
// status is one of "success", "warn", "error".
func (r *Renderer) StatusLine(name, status, note string) {
	icon := r.styles.StatusSuccess.String()
	switch status {
	case "warn":
		icon = r.styles.Warning.Render("!")
	case "error":
		icon = r.styles.StatusFailed.String()
	}
	line := fmt.Sprintf("  %s %s", icon, name)
	if note != "" {
		line += "  " + r.styles.Muted.Render(note)
	}
	_, _ = fmt.Fprintln(r.out, line)
}
