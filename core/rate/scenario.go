// Package rate normalizes currency-to-coin exchange quotes after transaction tax.
package rate

import (
	"github.com/shopspring/decimal"

	"craft-cost/internal/errors"
)

// Default scenario keys
const (
	ScenarioNoLoss             = "no-loss"
	ScenarioLocalTrade         = "local-trade"
	ScenarioCrossServerPartial = "cross-server-seller-absorbs-partial"
	ScenarioCrossServerNone    = "cross-server-seller-absorbs-none"
)

// Scenario is a named trade situation and the fraction of nominal value that
// survives its transaction tax.
type Scenario struct {
	Key         string          `json:"key" toml:"key"`
	Label       string          `json:"label" toml:"label"`
	Coefficient decimal.Decimal `json:"coefficient" toml:"coefficient"`
}

// Loss returns the fraction lost to tax (1 - coefficient)
func (s Scenario) Loss() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(s.Coefficient)
}

// DefaultScenarios returns the built-in tax table
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Key: ScenarioNoLoss, Label: "Seller covers all tax (0%)", Coefficient: decimal.NewFromInt(1)},
		{Key: ScenarioLocalTrade, Label: "Same-server trade (12%)", Coefficient: decimal.RequireFromString("0.88")},
		{Key: ScenarioCrossServerPartial, Label: "Cross-server, seller absorbs 10% (12%)", Coefficient: decimal.RequireFromString("0.88")},
		{Key: ScenarioCrossServerNone, Label: "Cross-server, seller absorbs nothing (22%)", Coefficient: decimal.RequireFromString("0.78")},
	}
}

// ScenarioTable is a validated, ordered set of scenarios
type ScenarioTable struct {
	scenarios []Scenario
	byKey     map[string]int
}

// NewScenarioTable validates scenarios and indexes them by key. Every
// coefficient must lie in (0, 1] and keys must be unique and non-empty.
func NewScenarioTable(scenarios []Scenario) (*ScenarioTable, error) {
	if len(scenarios) == 0 {
		return nil, errors.Config("tax scenario table is empty")
	}

	one := decimal.NewFromInt(1)
	t := &ScenarioTable{
		scenarios: make([]Scenario, 0, len(scenarios)),
		byKey:     make(map[string]int, len(scenarios)),
	}
	for _, s := range scenarios {
		if s.Key == "" {
			return nil, errors.Config("tax scenario with empty key")
		}
		if _, dup := t.byKey[s.Key]; dup {
			return nil, errors.Config("duplicate tax scenario %q", s.Key)
		}
		if !s.Coefficient.IsPositive() || s.Coefficient.GreaterThan(one) {
			return nil, errors.Config("tax scenario %q: coefficient %s outside (0, 1]", s.Key, s.Coefficient)
		}
		if s.Label == "" {
			s.Label = s.Key
		}
		t.byKey[s.Key] = len(t.scenarios)
		t.scenarios = append(t.scenarios, s)
	}
	return t, nil
}

// DefaultScenarioTable returns the built-in table
func DefaultScenarioTable() *ScenarioTable {
	t, err := NewScenarioTable(DefaultScenarios())
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the scenario for key
func (t *ScenarioTable) Lookup(key string) (Scenario, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Scenario{}, false
	}
	return t.scenarios[i], true
}

// Coefficient returns the coefficient for key or an INPUT_ERROR for unknown keys
func (t *ScenarioTable) Coefficient(key string) (decimal.Decimal, error) {
	s, ok := t.Lookup(key)
	if !ok {
		return decimal.Zero, errors.Input("unknown tax scenario %q", key).WithContext("known", t.Keys())
	}
	return s.Coefficient, nil
}

// List returns the scenarios in declaration order
func (t *ScenarioTable) List() []Scenario {
	out := make([]Scenario, len(t.scenarios))
	copy(out, t.scenarios)
	return out
}

// Keys returns the scenario keys in declaration order
func (t *ScenarioTable) Keys() []string {
	keys := make([]string, len(t.scenarios))
	for i, s := range t.scenarios {
		keys[i] = s.Key
	}
	return keys
}
