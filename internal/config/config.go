// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"craft-cost/core/rate"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" toml:"version"`

	// Scenarios is the tax scenario table
	Scenarios []rate.Scenario `json:"scenarios" toml:"scenarios"`

	// Evaluation contains evaluation defaults
	Evaluation EvaluationConfig `json:"evaluation" toml:"evaluation"`

	// Workbook contains recipe workbook discovery settings
	Workbook WorkbookConfig `json:"workbook" toml:"workbook"`

	// Server contains HTTP API settings
	Server ServerConfig `json:"server" toml:"server"`

	// Presets contains saved evaluation preset settings
	Presets PresetsConfig `json:"presets" toml:"presets"`

	// Output contains output configuration
	Output OutputConfig `json:"output" toml:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" toml:"logging"`
}

// EvaluationConfig holds defaults applied when a request leaves them empty
type EvaluationConfig struct {
	// RetailScenario is the tax scenario key for retail quotes
	RetailScenario string `json:"retail_scenario" toml:"retail_scenario"`

	// BulkScenario is the tax scenario key for bulk purchases
	BulkScenario string `json:"bulk_scenario" toml:"bulk_scenario"`

	// Direction is acquire or liquidate
	Direction rate.Direction `json:"direction" toml:"direction"`

	// StudioLabel and MarketLabel name the two standard offers
	StudioLabel string `json:"studio_label" toml:"studio_label"`
	MarketLabel string `json:"market_label" toml:"market_label"`
}

// WorkbookConfig describes where recipe workbooks live and how they are laid out
type WorkbookConfig struct {
	// Directory is searched for workbooks
	Directory string `json:"directory" toml:"directory"`

	// Prefix is the file name prefix
	Prefix string `json:"prefix" toml:"prefix"`

	// Factions maps a faction name to the keyword its file names contain
	Factions map[string]string `json:"factions" toml:"factions"`

	// DefaultFaction is used when none is given
	DefaultFaction string `json:"default_faction" toml:"default_faction"`

	RecipeSheet string `json:"recipe_sheet" toml:"recipe_sheet"`
	PriceSheet  string `json:"price_sheet" toml:"price_sheet"`

	// Columns are the recipe sheet headers
	Columns ColumnConfig `json:"columns" toml:"columns"`
}

// ColumnConfig names the recipe sheet columns
type ColumnConfig struct {
	Series   string `json:"series" toml:"series"`
	Part     string `json:"part" toml:"part"`
	Material string `json:"material" toml:"material"`
	Quantity string `json:"quantity" toml:"quantity"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" toml:"addr"`

	ReadTimeoutSeconds  int `json:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `json:"write_timeout_seconds" toml:"write_timeout_seconds"`
}

// PresetsConfig selects where evaluation presets are kept
type PresetsConfig struct {
	// Backend is file or memory
	Backend string `json:"backend" toml:"backend"`

	// Path is the file backend directory
	Path string `json:"path" toml:"path"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" toml:"default_format"`

	// ShowDetails shows the per-material breakdown
	ShowDetails bool `json:"show_details" toml:"show_details"`

	// Color enables ANSI colours in cli output
	Color bool `json:"color" toml:"color"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version:   "1.0",
		Scenarios: rate.DefaultScenarios(),
		Evaluation: EvaluationConfig{
			RetailScenario: rate.ScenarioLocalTrade,
			BulkScenario:   rate.ScenarioLocalTrade,
			Direction:      rate.Acquire,
			StudioLabel:    "studio",
			MarketLabel:    "market",
		},
		Workbook: WorkbookConfig{
			Directory: ".",
			Prefix:    "裝備成本戰情室",
			Factions: map[string]string{
				"asmodian": "魔",
				"elyos":    "天",
			},
			DefaultFaction: "asmodian",
			RecipeSheet:    "Data_Recipes",
			PriceSheet:     "Price_List",
			Columns: ColumnConfig{
				Series:   "系列",
				Part:     "部位",
				Material: "材料名稱",
				Quantity: "需求數量",
			},
		},
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
		},
		Presets: PresetsConfig{
			Backend: "file",
			Path:    defaultPresetPath(),
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowDetails:   true,
			Color:         true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. Files ending in .toml are read as
// TOML, everything else as JSON. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.TypeConfig, "failed to read config", err).WithContext("path", path)
	}

	config := Default()
	config.Scenarios = nil
	if isTOML(path) {
		err = toml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to decode config", err).WithContext("path", path)
	}
	if len(config.Scenarios) == 0 {
		config.Scenarios = rate.DefaultScenarios()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the scenario table and that the evaluation defaults refer
// to known scenarios.
func (c *Config) Validate() error {
	table, err := c.ScenarioTable()
	if err != nil {
		return err
	}
	for _, key := range []string{c.Evaluation.RetailScenario, c.Evaluation.BulkScenario} {
		if key == "" {
			continue
		}
		if _, ok := table.Lookup(key); !ok {
			return errors.Config("default scenario %q is not in the scenario table", key)
		}
	}
	switch c.Presets.Backend {
	case "", "file", "memory":
	default:
		return errors.Config("unsupported preset backend %q", c.Presets.Backend)
	}
	if c.Workbook.DefaultFaction != "" {
		if _, ok := c.Workbook.Factions[c.Workbook.DefaultFaction]; !ok {
			return errors.Config("default faction %q has no keyword", c.Workbook.DefaultFaction)
		}
	}
	return nil
}

// ScenarioTable builds the validated tax table
func (c *Config) ScenarioTable() (*rate.ScenarioTable, error) {
	return rate.NewScenarioTable(c.Scenarios)
}

// FactionKeyword returns the file name keyword for faction, or for the
// default faction when faction is empty.
func (c *Config) FactionKeyword(faction string) (string, error) {
	if faction == "" {
		faction = c.Workbook.DefaultFaction
	}
	kw, ok := c.Workbook.Factions[faction]
	if !ok {
		return "", errors.Input("unknown faction %q", faction)
	}
	return kw, nil
}

func defaultPresetPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".craft-cost", "presets")
	}
	return filepath.Join(home, ".craft-cost", "presets")
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
