// Package cmd provides the CLI commands for craft-cost.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"craft-cost/core/engine"
	"craft-cost/core/ui"
	"craft-cost/internal/config"
	"craft-cost/internal/logging"
)

// version is set at build time with -ldflags
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "craft-cost",
	Short: "Compare the cost of crafting gear against buying it",
	Long: `craft-cost works out what a piece of equipment costs to craft from
materials, converts every way of getting it into real currency after
transaction tax, and reports the cheapest one.

Examples:
  craft-cost evaluate --series 深淵 --part 深淵長劍 --rate 3.5W --market 120W
  craft-cost rates --rate 3.5W --bulk-paid 1000 --bulk-coin 4000W
  craft-cost catalog 深淵
  craft-cost preset list
  craft-cost serve --addr :8080`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .toml or .json (default is $HOME/.craft-cost.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".craft-cost.toml")
		}
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// newEngine builds an engine from the loaded configuration
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	table, err := cfg.ScenarioTable()
	if err != nil {
		return nil, err
	}
	return engine.New(table,
		engine.WithLogger(logging.Named("engine")),
		engine.WithDefaults(engine.Defaults{
			RetailScenario: cfg.Evaluation.RetailScenario,
			BulkScenario:   cfg.Evaluation.BulkScenario,
			Direction:      cfg.Evaluation.Direction,
		}),
	), nil
}

// newWriter returns a terminal writer honouring --verbose and the colour setting
func newWriter(cmd *cobra.Command, cfg *config.Config) *ui.Writer {
	w := ui.NewWriter(cmd.OutOrStdout(), !cfg.Output.Color)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "craft-cost version %s\n", version)
	},
}
