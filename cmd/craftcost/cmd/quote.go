// Package cmd - parse, rates and scenarios commands
package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"craft-cost/core/engine"
	"craft-cost/core/magnitude"
	"craft-cost/core/output"
	"craft-cost/core/rate"
	"craft-cost/internal/config"
)

var quoteOpts struct {
	rate         string
	rateScenario string
	bulkPaid     string
	bulkCoin     string
	bulkScenario string
	direction    string
	outputFormat string
}

// parseCmd parses shorthand amounts
var parseCmd = &cobra.Command{
	Use:   "parse <amount>...",
	Short: "Parse shorthand amounts such as 3.5W or 1.2E",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := newWriter(cmd, config.Get())
		table := w.NewTable("Input", "Value", "Shorthand").AlignRight(1)
		for _, a := range args {
			d, err := magnitude.ParseString(a)
			if err != nil {
				table.AddRow(a, "invalid", "")
				continue
			}
			table.AddRow(a, output.Coin(d), magnitude.Format(d))
		}
		table.Render()
		return nil
	},
}

// ratesCmd compares the retail and bulk exchange rates
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Compare retail and bulk exchange rates after tax",
	Long: `Normalise a retail rate and a bulk coin purchase to coin per currency unit
after transaction tax, and report which one to use.

Examples:
  craft-cost rates --rate 3.5W --bulk-paid 1000 --bulk-coin 4000W
  craft-cost rates --rate 3.5W --direction liquidate`,
	Args: cobra.NoArgs,
	RunE: runRates,
}

// scenariosCmd lists the tax scenarios
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the transaction tax scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		table, err := cfg.ScenarioTable()
		if err != nil {
			return err
		}

		w := newWriter(cmd, cfg)
		t := w.NewTable("Key", "Label", "Coefficient", "Loss").AlignRight(2, 3)
		for _, s := range table.List() {
			marker := ""
			if s.Key == cfg.Evaluation.RetailScenario {
				marker = " *"
			}
			t.AddRow(s.Key+marker, s.Label, s.Coefficient.String(), output.Percent(s.Loss().Mul(hundred)))
		}
		t.Render()
		w.Println("")
		w.Info("* default scenario")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(scenariosCmd)

	f := ratesCmd.Flags()
	f.StringVarP(&quoteOpts.rate, "rate", "r", "", "retail rate, coin per currency unit")
	f.StringVar(&quoteOpts.rateScenario, "rate-scenario", "", "tax scenario of the retail rate (default from config)")
	f.StringVar(&quoteOpts.bulkPaid, "bulk-paid", "", "currency paid for a bulk coin purchase")
	f.StringVar(&quoteOpts.bulkCoin, "bulk-coin", "", "coin received for a bulk purchase")
	f.StringVar(&quoteOpts.bulkScenario, "bulk-scenario", "", "tax scenario of the bulk purchase (default from config)")
	f.StringVar(&quoteOpts.direction, "direction", "", "acquire or liquidate (default from config)")
	f.StringVarP(&quoteOpts.outputFormat, "format", "f", "cli", "output format (cli, json)")
}

var hundred = magnitude.MustParse("100")

func runRates(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	dir := cfg.Evaluation.Direction
	if quoteOpts.direction != "" {
		if dir, err = rate.ParseDirection(quoteOpts.direction); err != nil {
			return err
		}
	}

	summary, diags, err := eng.Rates(
		engine.RetailInput{Rate: magnitude.Input(quoteOpts.rate), Scenario: quoteOpts.rateScenario},
		engine.BulkInput{
			CurrencyPaid: magnitude.Input(quoteOpts.bulkPaid),
			CoinReceived: magnitude.Input(quoteOpts.bulkCoin),
			Scenario:     quoteOpts.bulkScenario,
		},
		dir,
	)
	if err != nil {
		return err
	}

	if quoteOpts.outputFormat == string(output.FormatJSON) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"rates": summary, "diagnostics": diags})
	}

	w := newWriter(cmd, cfg)
	w.Header("Exchange Rates")
	t := w.NewTable("Source", "Scenario", "Quoted", "Effective").AlignRight(2, 3)
	t.AddRow("retail", summary.RetailScenario.Key, output.Coin(summary.RetailRaw), output.Coin(summary.RetailNet))
	t.AddRow("bulk", summary.BulkScenario.Key, output.Coin(summary.BulkCoinRaw), output.Coin(summary.BulkNet))
	t.Render()
	w.Println("")

	sel := summary.Selected
	if !sel.Rate.Defined() {
		w.Warning("No usable exchange rate")
	} else {
		w.Success("Use %s at %s coin per unit (%s, %s better)",
			sel.Source, output.Coin(sel.Rate.Value()), dir, output.Percent(sel.Advantage))
	}
	for _, d := range diags {
		w.Warning("%s", d.String())
	}
	return nil
}
