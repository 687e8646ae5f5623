// Package cmd - preset commands
package cmd

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"craft-cost/adapters/storage"
	"craft-cost/core/determinism"
	"craft-cost/core/engine"
	"craft-cost/core/magnitude"
	"craft-cost/core/output"
	"craft-cost/core/ui"
	"craft-cost/internal/config"
	"craft-cost/internal/errors"
)

var presetOpts struct {
	series string
	part   string
	limit  int
	format string
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved evaluation inputs",
	Long: `A preset is a named set of evaluate inputs: the item, price overrides,
quotes and offers. Save one with "evaluate --save-preset NAME" and re-run it
against new quotes with "evaluate --preset NAME --rate ...".

Presets hold inputs only. Results are computed again on every run.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets by name",
	Args:  cobra.NoArgs,
	RunE:  runPresetList,
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the inputs of a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetShow,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetDelete,
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetShowCmd)
	presetCmd.AddCommand(presetDeleteCmd)

	presetListCmd.Flags().StringVarP(&presetOpts.series, "series", "s", "", "only presets for this series")
	presetListCmd.Flags().StringVarP(&presetOpts.part, "part", "p", "", "only presets for this part")
	presetListCmd.Flags().IntVar(&presetOpts.limit, "limit", 0, "maximum number of presets (0 for all)")

	presetShowCmd.Flags().StringVarP(&presetOpts.format, "format", "f", "cli", "output format (cli, json)")
}

// openStore opens the configured preset store
func openStore(cfg *config.Config) (storage.Store, error) {
	backend := storage.Backend(cfg.Presets.Backend)
	if backend == "" {
		backend = storage.BackendFile
	}
	return storage.StoreFactory(backend, cfg.Presets.Path)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runPresetList(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	presets, err := store.List(commandContext(cmd), &storage.ListFilter{
		Series: presetOpts.series,
		Part:   presetOpts.part,
		Limit:  presetOpts.limit,
	})
	if err != nil {
		return err
	}

	w := newWriter(cmd, cfg)
	if len(presets) == 0 {
		w.Info("No presets")
		return nil
	}
	t := w.NewTable("Name", "Item", "Qty", "Updated", "Description").AlignRight(2)
	for _, p := range presets {
		t.AddRow(p.Name, presetItem(p.Inputs), quantityText(p.Inputs.Quantity),
			p.UpdatedAt.Local().Format("2006-01-02 15:04"), p.Description)
	}
	t.Render()
	return nil
}

func runPresetShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	preset, err := store.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	switch output.Format(presetOpts.format) {
	case output.FormatJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(preset)
	case output.FormatCLI:
		showPreset(newWriter(cmd, cfg), preset)
		return nil
	default:
		return errors.Input("unsupported preset format %q (use cli or json)", presetOpts.format)
	}
}

func showPreset(w *ui.Writer, p *storage.Preset) {
	in := p.Inputs

	w.Header(p.Name)
	if p.Description != "" {
		w.Println("%s", p.Description)
	}
	w.Println("Item:      %s x%s", presetItem(in), quantityText(in.Quantity))
	if in.Retail.Rate != "" {
		w.Println("Retail:    %s (%s)", in.Retail.Rate, orDefault(in.Retail.Scenario))
	}
	if in.Bulk.CurrencyPaid != "" || in.Bulk.CoinReceived != "" {
		w.Println("Bulk:      %s for %s (%s)", in.Bulk.CurrencyPaid, in.Bulk.CoinReceived, orDefault(in.Bulk.Scenario))
	}
	if in.Direction != nil {
		w.Println("Direction: %s", *in.Direction)
	}

	if len(in.Lines) > 0 {
		w.SubHeader("Lines")
		t := w.NewTable("Material", "Quantity", "Unit price").AlignRight(1, 2)
		for _, l := range in.Lines {
			t.AddRow(l.Material, string(l.Quantity), string(l.UnitPrice))
		}
		t.Render()
	}
	if len(in.Prices) > 0 {
		w.SubHeader("Price overrides")
		t := w.NewTable("Material", "Price").AlignRight(1)
		determinism.RangeSorted(in.Prices, func(material string, price magnitude.Input) bool {
			t.AddRow(material, string(price))
			return true
		})
		t.Render()
	}
	if len(in.Offers) > 0 {
		w.SubHeader("Offers")
		t := w.NewTable("Label", "Price", "In", "Per item").AlignRight(1)
		for _, o := range in.Offers {
			t.AddRow(o.Label, string(o.Price), string(o.Denomination), strconv.FormatBool(o.PerUnit))
		}
		t.Render()
	}
}

// presetItem names the evaluated item: series/part or the line materials
func presetItem(in engine.Inputs) string {
	if in.Series != "" {
		return in.Series + "/" + in.Part
	}
	materials := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		materials = append(materials, l.Material)
	}
	return strings.Join(materials, "+")
}

func quantityText(q int) string {
	if q == 0 {
		q = 1
	}
	return strconv.Itoa(q)
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

func runPresetDelete(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(commandContext(cmd), args[0]); err != nil {
		return err
	}
	newWriter(cmd, cfg).Success("Deleted preset %s", args[0])
	return nil
}
