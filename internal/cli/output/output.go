// Package output prints command results as styled text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Mode selects how results are printed.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
	ModeYAML Mode = "yaml"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header lipgloss.Style
	Muted  lipgloss.Style
	Pass   lipgloss.Style
	Fail   lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Pass:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Fail:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// Renderer writes results to one stream in one mode.
type Renderer struct {
	w      io.Writer
	mode   Mode
	styles Styles
}

// NewRenderer creates a Renderer. Unknown modes fall back to text.
func NewRenderer(w io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeJSON, ModeYAML:
	default:
		mode = ModeText
	}
	return &Renderer{w: w, mode: mode, styles: DefaultStyles()}
}

// Mode returns the effective output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Structured reports whether results should be encoded rather than drawn.
func (r *Renderer) Structured() bool { return r.mode != ModeText }

// Header prints a styled heading.
func (r *Renderer) Header(text string) {
	_, _ = fmt.Fprintln(r.w, r.styles.Header.Render(text))
}

// Muted prints secondary information.
func (r *Renderer) Muted(format string, args ...any) {
	_, _ = fmt.Fprintln(r.w, r.styles.Muted.Render(fmt.Sprintf(format, args...)))
}

// Println prints plain text.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.w, args...)
}

// Status prints a left-aligned label followed by PASS or FAIL.
func (r *Renderer) Status(label string, ok bool, detail string) {
	status := r.styles.Pass.Render("PASS")
	if !ok {
		status = r.styles.Fail.Render("FAIL")
		if detail != "" {
			status += " " + detail
		}
	}
	_, _ = fmt.Fprintf(r.w, "  %-32s %s\n", label, status)
}

// Table draws rows under header with go-pretty.
func (r *Renderer) Table(header []string, rows [][]any) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}

// Encode writes v as JSON or YAML according to the mode.
func (r *Renderer) Encode(v any) error {
	switch r.mode {
	case ModeYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}
