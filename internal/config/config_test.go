package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"craft-cost/core/rate"
	"craft-cost/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}

	table, err := cfg.ScenarioTable()
	if err != nil {
		t.Fatalf("ScenarioTable failed: %v", err)
	}
	coef, err := table.Coefficient(rate.ScenarioLocalTrade)
	if err != nil || !coef.Equal(decimal.RequireFromString("0.88")) {
		t.Errorf("Expected 0.88, got %s (%v)", coef, err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workbook.RecipeSheet != "Data_Recipes" {
		t.Errorf("Expected default sheet, got %q", cfg.Workbook.RecipeSheet)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "craftcost.toml")
	content := `
version = "1.0"

[[scenarios]]
key = "home"
label = "Home server"
coefficient = "0.9"

[[scenarios]]
key = "away"
label = "Other server"
coefficient = "0.75"

[evaluation]
retail_scenario = "home"
bulk_scenario = "away"
direction = "liquidate"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Scenarios) != 2 || !cfg.Scenarios[1].Coefficient.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("Unexpected scenarios: %+v", cfg.Scenarios)
	}
	if cfg.Evaluation.Direction != rate.Liquidate {
		t.Errorf("Expected liquidate, got %s", cfg.Evaluation.Direction)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected :9090, got %q", cfg.Server.Addr)
	}
	// untouched sections keep their defaults
	if cfg.Workbook.Prefix != "裝備成本戰情室" {
		t.Errorf("Expected default prefix, got %q", cfg.Workbook.Prefix)
	}
}

func TestLoadRejectsUnknownDefaultScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"evaluation": {"retail_scenario": "duty-free"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}

func TestLoadRejectsBadCoefficient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"scenarios": [{"key": "bad", "coefficient": "1.5"}], "evaluation": {"retail_scenario": "", "bulk_scenario": ""}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.json", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Server.Addr = ":7000"

			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Server.Addr != ":7000" {
				t.Errorf("Expected :7000, got %q", loaded.Server.Addr)
			}
			if len(loaded.Scenarios) != len(cfg.Scenarios) {
				t.Errorf("Expected %d scenarios, got %d", len(cfg.Scenarios), len(loaded.Scenarios))
			}
		})
	}
}

func TestFactionKeyword(t *testing.T) {
	cfg := Default()

	kw, err := cfg.FactionKeyword("")
	if err != nil || kw != "魔" {
		t.Errorf("Expected default keyword 魔, got %q (%v)", kw, err)
	}
	if kw, _ := cfg.FactionKeyword("elyos"); kw != "天" {
		t.Errorf("Expected 天, got %q", kw)
	}
	if _, err := cfg.FactionKeyword("pirates"); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("Expected INPUT_ERROR, got %v", err)
	}
}

func TestValidatePresetBackend(t *testing.T) {
	cfg := Default()
	if cfg.Presets.Backend != "file" || cfg.Presets.Path == "" {
		t.Errorf("Unexpected preset defaults: %+v", cfg.Presets)
	}

	cfg.Presets.Backend = "s3"
	if err := cfg.Validate(); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}
