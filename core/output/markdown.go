package output

import (
	"fmt"
	"io"
	"strings"

	"craft-cost/core/engine"
)

// MarkdownFormatter writes a markdown report
type MarkdownFormatter struct {
	opts Options
}

// NewMarkdownFormatter creates a markdown formatter
func NewMarkdownFormatter(opts Options) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

// Format implements Formatter
func (f *MarkdownFormatter) Format() Format { return FormatMarkdown }

// Render implements Formatter
func (f *MarkdownFormatter) Render(w io.Writer, ev *engine.Evaluation) error {
	var b strings.Builder

	title := "Evaluation"
	if ev.Series != "" || ev.Part != "" {
		title = ev.Series + " / " + ev.Part
	}
	fmt.Fprintf(&b, "## %s\n\n", title)

	if best, ok := ev.Comparison.BestCost(); ok {
		fmt.Fprintf(&b, "**Best: %s** at %s", ev.Comparison.Best, Currency(best))
		if m := marginText(ev); m != "" {
			fmt.Fprintf(&b, ", %s", m)
		}
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "**No recommendation:** %s\n\n", problem(ev))
	}

	sel := ev.Rates.Selected
	if sel.Rate.Defined() {
		fmt.Fprintf(&b, "Exchange rate: 1:%s from %s", Coin(sel.Rate.Value()), sel.Source)
		if sel.Advantage.IsPositive() {
			fmt.Fprintf(&b, " (%s better)", Percent(sel.Advantage))
		}
		b.WriteString("\n\n")
	}

	b.WriteString("| Channel | Amount | Unit | Cost (currency) |\n")
	b.WriteString("|---|---:|---|---:|\n")
	for _, r := range ev.Comparison.Ranked {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Label, amount(r), r.Denomination, Currency(r.Cost))
	}
	for _, label := range ev.Comparison.Excluded {
		fmt.Fprintf(&b, "| %s | - | | unavailable |\n", label)
	}

	if f.opts.ShowDetails && len(ev.Materials.Lines) > 0 {
		fmt.Fprintf(&b, "\n### Materials (x%d)\n\n", ev.Quantity)
		b.WriteString("| Material | Qty | Unit price | Cost |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, l := range ev.Materials.Lines {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", l.Material, l.Quantity, Coin(l.UnitPrice), Coin(l.Cost))
		}
		fmt.Fprintf(&b, "\nTotal: %s coin\n", Coin(ev.Materials.Total))
	}

	if len(ev.Diagnostics) > 0 {
		b.WriteString("\n<details><summary>Diagnostics</summary>\n\n")
		for _, d := range ev.Diagnostics {
			fmt.Fprintf(&b, "- `%s` %s\n", d.Severity, d.String())
		}
		b.WriteString("\n</details>\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
