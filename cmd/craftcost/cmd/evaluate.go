// Package cmd - evaluate command
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"craft-cost/adapters/storage"
	"craft-cost/core/compare"
	"craft-cost/core/engine"
	"craft-cost/core/magnitude"
	"craft-cost/core/output"
	"craft-cost/core/rate"
	"craft-cost/internal/config"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

var evalOpts struct {
	book bookFlags

	series   string
	part     string
	quantity int
	lines    []string
	prices   []string

	rate         string
	rateScenario string
	bulkPaid     string
	bulkCoin     string
	bulkScenario string
	direction    string

	studio string
	market string
	offers []string

	preset      string
	savePreset  string
	description string

	outputFormat string
	showDetails  bool
	noColor      bool
}

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare crafting an item against buying it",
	Long: `Price a recipe in coin, convert it and every competing offer into
currency at the better of the retail and bulk exchange rates, and report
the cheapest way to get the item.

The recipe comes from the recipe book (--series and --part) or from --line
flags. Amounts accept shorthand such as 3.5W, 1.2E or 500K.

Examples:
  craft-cost evaluate --series 深淵 --part 深淵長劍 --rate 3.5W --studio 30 --market 120W
  craft-cost evaluate --hcl book.hcl --series Abyss --part Longsword --rate 35000
  craft-cost evaluate --line 秘銀礦=8@10W --line 血晶=2@10W --rate 3.5W --format json
  craft-cost evaluate --preset sword --rate 3.6W`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	f := evaluateCmd.Flags()
	evalOpts.book.register(evaluateCmd)
	f.StringVarP(&evalOpts.series, "series", "s", "", "equipment series in the recipe book")
	f.StringVarP(&evalOpts.part, "part", "p", "", "part within the series")
	f.IntVarP(&evalOpts.quantity, "quantity", "n", 0, "number of items to produce (default 1)")
	f.StringArrayVar(&evalOpts.lines, "line", nil, "recipe line material=quantity[@unit price], repeatable")
	f.StringArrayVar(&evalOpts.prices, "price", nil, "override a material price, material=amount, repeatable")

	f.StringVarP(&evalOpts.rate, "rate", "r", "", "retail rate, coin per currency unit")
	f.StringVar(&evalOpts.rateScenario, "rate-scenario", "", "tax scenario of the retail rate (default from config)")
	f.StringVar(&evalOpts.bulkPaid, "bulk-paid", "", "currency paid for a bulk coin purchase")
	f.StringVar(&evalOpts.bulkCoin, "bulk-coin", "", "coin received for a bulk purchase")
	f.StringVar(&evalOpts.bulkScenario, "bulk-scenario", "", "tax scenario of the bulk purchase (default from config)")
	f.StringVar(&evalOpts.direction, "direction", "", "acquire or liquidate (default from config)")

	f.StringVar(&evalOpts.studio, "studio", "", "per-item price of a studio offer, in currency")
	f.StringVar(&evalOpts.market, "market", "", "per-item price on the market, in coin")
	f.StringArrayVar(&evalOpts.offers, "offer", nil, "extra offer label=price[:coin|currency], repeatable")

	f.StringVarP(&evalOpts.outputFormat, "format", "f", "", "output format (cli, json, markdown)")
	f.BoolVarP(&evalOpts.showDetails, "details", "d", true, "show the per-material breakdown")
	f.BoolVar(&evalOpts.noColor, "no-color", false, "disable colours")
	f.StringVar(&evalOpts.preset, "preset", "", "start from a saved preset; other flags override it")
	f.StringVar(&evalOpts.savePreset, "save-preset", "", "save these inputs as a preset before evaluating")
	f.StringVar(&evalOpts.description, "description", "", "description stored with --save-preset")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := config.Get()

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	in, err := evaluateInputs(cfg)
	if err != nil {
		return err
	}

	if evalOpts.preset != "" || evalOpts.savePreset != "" {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if evalOpts.preset != "" {
			preset, err := store.Get(ctx, evalOpts.preset)
			if err != nil {
				return err
			}
			in = preset.Inputs.Overlay(in)
		}
		if evalOpts.savePreset != "" {
			preset := &storage.Preset{Name: evalOpts.savePreset, Description: evalOpts.description, Inputs: in}
			if err := store.Save(ctx, preset); err != nil {
				return err
			}
			logging.Info("preset saved", zap.String("name", preset.Name))
		}
	}

	var book engine.Book
	if in.Series != "" || evalOpts.book.workbook != "" || evalOpts.book.hcl != "" {
		catalog, err := evalOpts.book.load(ctx, cfg)
		if err != nil {
			return err
		}
		book = catalog
	}

	req, err := eng.Resolve(in, book)
	if err != nil {
		return err
	}
	ev, err := eng.Evaluate(req)
	if err != nil {
		return err
	}
	return render(cmd, cfg, ev)
}

// evaluateInputs collects the flags into evaluation inputs. Flags left
// unset stay empty so that a preset can fill them.
func evaluateInputs(cfg *config.Config) (engine.Inputs, error) {
	in := engine.Inputs{
		Series:   evalOpts.series,
		Part:     evalOpts.part,
		Quantity: evalOpts.quantity,
		Retail: engine.RetailInput{
			Rate:     magnitude.Input(evalOpts.rate),
			Scenario: evalOpts.rateScenario,
		},
		Bulk: engine.BulkInput{
			CurrencyPaid: magnitude.Input(evalOpts.bulkPaid),
			CoinReceived: magnitude.Input(evalOpts.bulkCoin),
			Scenario:     evalOpts.bulkScenario,
		},
	}

	if evalOpts.direction != "" {
		dir, err := rate.ParseDirection(evalOpts.direction)
		if err != nil {
			return in, err
		}
		in.Direction = &dir
	}

	lines, err := parseLines(evalOpts.lines)
	if err != nil {
		return in, err
	}
	in.Lines = lines

	if len(evalOpts.prices) > 0 {
		in.Prices = make(map[string]magnitude.Input, len(evalOpts.prices))
		for _, p := range evalOpts.prices {
			material, amount, err := splitPair(p)
			if err != nil {
				return in, err
			}
			in.Prices[material] = magnitude.Input(amount)
		}
	}

	if evalOpts.studio != "" {
		in.Offers = append(in.Offers, engine.Offer{
			Label:        cfg.Evaluation.StudioLabel,
			Price:        magnitude.Input(evalOpts.studio),
			Denomination: compare.Currency,
			PerUnit:      true,
		})
	}
	if evalOpts.market != "" {
		in.Offers = append(in.Offers, engine.Offer{
			Label:        cfg.Evaluation.MarketLabel,
			Price:        magnitude.Input(evalOpts.market),
			Denomination: compare.Coin,
			PerUnit:      true,
		})
	}
	offers, err := parseOffers(evalOpts.offers)
	if err != nil {
		return in, err
	}
	in.Offers = append(in.Offers, offers...)

	return in, nil
}

// parseLines reads material=quantity[@unit price]
func parseLines(specs []string) ([]engine.LineInput, error) {
	out := make([]engine.LineInput, 0, len(specs))
	for _, s := range specs {
		material, value, err := splitPair(s)
		if err != nil {
			return nil, err
		}
		line := engine.LineInput{Material: material, Quantity: magnitude.Input(value)}
		if qty, price, ok := strings.Cut(value, "@"); ok {
			line.Quantity = magnitude.Input(strings.TrimSpace(qty))
			line.UnitPrice = magnitude.Input(strings.TrimSpace(price))
		}
		out = append(out, line)
	}
	return out, nil
}

// parseOffers reads label=price[:coin|currency]; coin is the default
func parseOffers(specs []string) ([]engine.Offer, error) {
	out := make([]engine.Offer, 0, len(specs))
	for _, s := range specs {
		label, value, err := splitPair(s)
		if err != nil {
			return nil, err
		}
		offer := engine.Offer{Label: label, Price: magnitude.Input(value), Denomination: compare.Coin}
		if price, denom, ok := strings.Cut(value, ":"); ok {
			offer.Price = magnitude.Input(strings.TrimSpace(price))
			d, err := compare.ParseDenomination(denom)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeInput, err, "offer %q", label)
			}
			offer.Denomination = d
		}
		out = append(out, offer)
	}
	return out, nil
}

func render(cmd *cobra.Command, cfg *config.Config, ev *engine.Evaluation) error {
	format := evalOpts.outputFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	opts := output.Options{
		ShowDetails: evalOpts.showDetails && cfg.Output.ShowDetails,
		Color:       cfg.Output.Color && !evalOpts.noColor,
		Verbose:     verbose,
	}

	formatter, err := output.NewRegistry(opts).Get(output.Format(format))
	if err != nil {
		return err
	}
	return formatter.Render(cmd.OutOrStdout(), ev)
}
