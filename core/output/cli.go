package output

import (
	"io"

	"craft-cost/core/diagnostics"
	"craft-cost/core/engine"
	"craft-cost/core/ui"
)

// CLIFormatter renders coloured terminal tables
type CLIFormatter struct {
	opts Options
}

// NewCLIFormatter creates a CLI formatter
func NewCLIFormatter(opts Options) *CLIFormatter {
	return &CLIFormatter{opts: opts}
}

// Format implements Formatter
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render implements Formatter
func (f *CLIFormatter) Render(out io.Writer, ev *engine.Evaluation) error {
	w := ui.NewWriter(out, !f.opts.Color)
	if f.opts.Verbose {
		w.SetVerbosity(2)
	}

	title := "Evaluation"
	if ev.Series != "" || ev.Part != "" {
		title = ev.Series + " / " + ev.Part
	}
	w.Header(title)
	w.Println("Production quantity: %d", ev.Quantity)

	f.renderRates(w, ev)

	if f.opts.ShowDetails && len(ev.Materials.Lines) > 0 {
		w.Println("")
		w.SubHeader("Materials")
		t := w.NewTable("Material", "Qty", "Unit price", "Cost", "Source").AlignRight(1, 2, 3)
		for _, l := range ev.Materials.Lines {
			t.AddRow(l.Material, l.Quantity.String(), Coin(l.UnitPrice), Coin(l.Cost), string(l.Source))
		}
		t.Render()
		w.Println("Per item: %s   Total: %s coin", Coin(ev.Materials.PerItem), Coin(ev.Materials.Total))
	}

	w.Println("")
	w.SubHeader("Channels")
	t := w.NewTable("Channel", "Amount", "Unit", "Cost (currency)").AlignRight(1, 3)
	for _, r := range ev.Comparison.Ranked {
		t.AddRow(r.Label, amount(r), string(r.Denomination), Currency(r.Cost))
	}
	for _, label := range ev.Comparison.Excluded {
		t.AddRow(label, "-", "", "unavailable")
	}
	t.Render()

	v := w.NewVerdict()
	if best, ok := ev.Comparison.BestCost(); ok {
		v.Winner = ev.Comparison.Best
		v.BestCost = Currency(best)
		v.Margin = marginText(ev)
	} else {
		v.Problem = problem(ev)
	}
	v.Warnings = ev.Diagnostics.Count(diagnostics.SeverityWarning)
	v.Render()

	for _, d := range ev.Diagnostics {
		if d.Severity == diagnostics.SeverityWarning {
			w.Warning("%s", d.String())
		} else {
			w.Debug("%s", d.String())
		}
	}
	return nil
}

func (f *CLIFormatter) renderRates(w *ui.Writer, ev *engine.Evaluation) {
	r := ev.Rates
	w.Println("")
	w.SubHeader("Exchange")
	t := w.NewTable("Channel", "Scenario", "Raw", "Effective").AlignRight(2, 3)
	t.AddRow("retail", r.RetailScenario.Label, Coin(r.RetailRaw), Coin(r.RetailNet))
	t.AddRow("bulk", r.BulkScenario.Label, Coin(r.BulkCoinRaw)+" / "+Currency(r.BulkCurrencyPaid), Coin(r.BulkNet))
	t.Render()

	sel := r.Selected
	if !sel.Rate.Defined() {
		w.Warning("no usable exchange rate")
		return
	}
	msg := "using " + string(sel.Source) + " rate 1:" + Coin(sel.Rate.Value()) + " (" + sel.Direction.String() + ")"
	if sel.Advantage.IsPositive() {
		msg += ", " + Percent(sel.Advantage) + " better"
	}
	w.Success("%s", msg)
}
