// Package ui - Terminal user interface
// CLI output with tables, verdict boxes and colors.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/width"
)

// Colors for terminal output
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// Color applies color if enabled
func (w *Writer) Color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Print writes a line
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line with newline
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Println("")
	w.Println("%s", w.Color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Println("")
}

// SubHeader prints a subsection header
func (w *Writer) SubHeader(title string) {
	w.Println("%s", w.Color(Bold, "▸ "+title))
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.Color(Green, "✓ "), msg)
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.Color(Yellow, "⚠ "), msg)
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.Color(Red, "✗ "), msg)
}

// Info prints an info message
func (w *Writer) Info(format string, args ...interface{}) {
	if w.verbosity < 1 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.Color(Blue, "ℹ "), msg)
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity < 2 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.Println("%s", w.Color(Dim, "  "+msg))
}

// DisplayWidth is the number of terminal columns s occupies. East Asian
// wide and fullwidth runes take two.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// pad fills s with spaces up to w columns
func pad(s string, w int, right bool) string {
	gap := w - DisplayWidth(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
	right   []bool
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = DisplayWidth(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		rows:    [][]string{},
		widths:  widths,
		right:   make([]bool, len(headers)),
	}
}

// AlignRight right-aligns the given columns, for numbers
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.right) {
			t.right[c] = true
		}
	}
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := DisplayWidth(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Render prints the table
func (t *Table) Render() {
	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = pad(c, t.widths[i], t.right[i])
		}
		return strings.Join(parts, " │ ")
	}

	t.w.Println("%s", t.w.Color(Bold, line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	t.w.Println("%s", strings.Join(sep, "─┼─"))

	for _, row := range t.rows {
		t.w.Println("%s", line(row))
	}
}

// Verdict renders the headline result of an evaluation
type Verdict struct {
	w *Writer

	// Winner is the label of the cheapest channel; empty when none was chosen
	Winner   string
	BestCost string

	// Margin describes the lead over the runner-up, if any
	Margin string

	// Problem explains why no winner was chosen
	Problem  string
	Warnings int
}

// NewVerdict creates a verdict box
func (w *Writer) NewVerdict() *Verdict {
	return &Verdict{w: w}
}

// Render prints the verdict
func (v *Verdict) Render() {
	v.w.Header("Verdict")

	const inner = 40
	border := strings.Repeat("─", inner)
	box := func(c, text string) {
		v.w.Println("%s%s%s", v.w.Color(Bold, "│"), v.w.Color(c, pad("  "+text, inner, false)), v.w.Color(Bold, "│"))
	}

	v.w.Println("%s", v.w.Color(Bold, "╭"+border+"╮"))
	if v.Winner != "" {
		box(Green, "Best: "+v.Winner)
		box(Green, "Cost: "+v.BestCost)
		if v.Margin != "" {
			box(Dim, v.Margin)
		}
	} else {
		box(Yellow, "No recommendation")
		if v.Problem != "" {
			box(Dim, v.Problem)
		}
	}
	v.w.Println("%s", v.w.Color(Bold, "╰"+border+"╯"))

	if v.Warnings > 0 {
		v.w.Println("")
		v.w.Warning("%d warnings", v.Warnings)
	}
}
