// Package cmd - catalog command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"craft-cost/core/category"
	"craft-cost/core/output"
	"craft-cost/core/recipe"
	"craft-cost/internal/config"
)

var catalogOpts struct {
	book     bookFlags
	category string
	quantity int
}

// catalogCmd browses the recipe book
var catalogCmd = &cobra.Command{
	Use:   "catalog [series [part]]",
	Short: "Browse the recipe book",
	Long: `Without arguments, list the series in the recipe book. With a series,
list its parts grouped by category. With a series and a part, show the
materials and their prices.

Examples:
  craft-cost catalog
  craft-cost catalog 深淵 --category weapon
  craft-cost catalog 深淵 深淵長劍 --quantity 3`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogOpts.book.register(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogOpts.category, "category", "", "only list parts of this category (weapon, armor, accessory)")
	catalogCmd.Flags().IntVarP(&catalogOpts.quantity, "quantity", "n", 1, "production quantity when showing a part")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := config.Get()

	book, err := catalogOpts.book.load(ctx, cfg)
	if err != nil {
		return err
	}

	w := newWriter(cmd, cfg)
	classifier := category.Default()

	switch len(args) {
	case 0:
		w.Header("Series")
		w.Info("Source: %s", book.Source)
		for _, s := range book.Series() {
			w.Println("  %s", s)
		}
		for _, d := range book.Diagnostics {
			w.Debug("%s", d.String())
		}
		return nil

	case 1:
		series := args[0]
		parts, err := book.Describe(series, classifier)
		if err != nil {
			return err
		}
		cats, err := book.Categories(series, classifier)
		if err != nil {
			return err
		}

		w.Header(series)
		for _, cat := range cats {
			if catalogOpts.category != "" && string(cat) != catalogOpts.category {
				continue
			}
			w.SubHeader(string(cat))
			for _, p := range parts {
				if p.Category == cat {
					w.Println("  %s (%d materials)", p.Part, p.Materials)
				}
			}
		}
		return nil

	default:
		series, part := args[0], args[1]
		r, err := book.Recipe(series, part, catalogOpts.quantity)
		if err != nil {
			return err
		}
		breakdown := recipe.Resolve(r, book.Prices())

		w.Header(fmt.Sprintf("%s / %s", series, part))
		t := w.NewTable("Material", "Quantity", "Unit Price", "Cost").AlignRight(1, 2, 3)
		for _, l := range breakdown.Lines {
			price := output.Coin(l.UnitPrice)
			if l.Source == recipe.PriceMissing {
				price = "missing"
			}
			t.AddRow(l.Material, l.Quantity.String(), price, output.Coin(l.Cost))
		}
		t.Render()
		w.Println("")
		w.Println("Per item: %s coin", output.Coin(breakdown.PerItem))
		w.Println("Total (x%d): %s coin", breakdown.ProductionQuantity, output.Coin(breakdown.Total))
		for _, d := range breakdown.Diagnostics {
			w.Warning("%s", d.String())
		}
		return nil
	}
}
