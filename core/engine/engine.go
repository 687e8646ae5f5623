// Package engine composes parsing, rate normalization, recipe aggregation
// and channel comparison into a single evaluation: what does it cost to
// make this item yourself versus the competing offers, in currency.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"craft-cost/core/compare"
	"craft-cost/core/determinism"
	"craft-cost/core/diagnostics"
	"craft-cost/core/magnitude"
	"craft-cost/core/rate"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

// SelfProductionLabel is the channel label for crafting from materials
const SelfProductionLabel = "self-production"

// RetailInput is the retail exchange quote as entered
type RetailInput struct {
	// Rate is coin per currency unit, shorthand allowed ("3.5W")
	Rate     magnitude.Input `json:"rate"`
	Scenario string          `json:"scenario,omitempty"`
}

// BulkInput is a bulk coin purchase as entered
type BulkInput struct {
	CurrencyPaid magnitude.Input `json:"currency_paid"`
	CoinReceived magnitude.Input `json:"coin_received"`
	Scenario     string          `json:"scenario,omitempty"`
}

// Offer is a competing way to obtain the finished item
type Offer struct {
	Label        string               `json:"label"`
	Price        magnitude.Input      `json:"price"`
	Denomination compare.Denomination `json:"denomination"`

	// PerUnit multiplies the price by the production quantity
	PerUnit bool `json:"per_unit"`
}

// LineInput is a recipe line as entered. An empty UnitPrice leaves the
// material to the price book.
type LineInput struct {
	Material  string          `json:"material"`
	Quantity  magnitude.Input `json:"quantity"`
	UnitPrice magnitude.Input `json:"unit_price,omitempty"`
}

// Request is everything one evaluation needs. Lines are appended to Recipe.
// Recipe lines without a price are resolved against Prices; PriceOverrides
// replace the price of a material for this evaluation only.
type Request struct {
	Recipe         recipe.Recipe              `json:"recipe"`
	Lines          []LineInput                `json:"lines,omitempty"`
	Prices         recipe.PriceBook           `json:"prices,omitempty"`
	PriceOverrides map[string]magnitude.Input `json:"price_overrides,omitempty"`

	Retail    RetailInput    `json:"retail"`
	Bulk      BulkInput      `json:"bulk"`
	Direction rate.Direction `json:"direction"`

	Offers []Offer `json:"offers,omitempty"`
}

// RateSummary reports both quotes and the rate used for conversion
type RateSummary struct {
	RetailScenario rate.Scenario   `json:"retail_scenario"`
	RetailRaw      decimal.Decimal `json:"retail_raw"`
	RetailNet      decimal.Decimal `json:"retail_effective"`

	BulkScenario     rate.Scenario   `json:"bulk_scenario"`
	BulkCurrencyPaid decimal.Decimal `json:"bulk_currency_paid"`
	BulkCoinRaw      decimal.Decimal `json:"bulk_coin_received"`
	BulkCoinNet      decimal.Decimal `json:"bulk_coin_net"`
	BulkNet          decimal.Decimal `json:"bulk_effective"`

	Selected rate.Selection `json:"selected"`
}

// Evaluation is the result of Engine.Evaluate
type Evaluation struct {
	ID          string           `json:"id"`
	InputHash   string           `json:"input_hash,omitempty"`
	Series      string           `json:"series,omitempty"`
	Part        string           `json:"part,omitempty"`
	Quantity    int              `json:"production_quantity"`
	Rates       RateSummary      `json:"rates"`
	Materials   recipe.Breakdown `json:"materials"`
	Entries     []compare.Entry  `json:"entries"`
	Comparison  compare.Result   `json:"comparison"`
	Diagnostics diagnostics.List `json:"diagnostics,omitempty"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// Defaults fill in request fields left empty
type Defaults struct {
	RetailScenario string
	BulkScenario   string

	// Direction is used by Resolve when the inputs leave it unset
	Direction rate.Direction
}

// Engine evaluates requests against a tax scenario table. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	scenarios *rate.ScenarioTable
	defaults  Defaults
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// WithDefaults sets the scenario keys and direction used when a request
// leaves them empty
func WithDefaults(d Defaults) Option {
	return func(e *Engine) { e.defaults = d }
}

// WithClock overrides the evaluation timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. A nil table means the built-in scenarios.
func New(scenarios *rate.ScenarioTable, opts ...Option) *Engine {
	if scenarios == nil {
		scenarios = rate.DefaultScenarioTable()
	}
	e := &Engine{
		scenarios: scenarios,
		defaults: Defaults{
			RetailScenario: rate.ScenarioLocalTrade,
			BulkScenario:   rate.ScenarioLocalTrade,
		},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scenarios returns the engine's tax table
func (e *Engine) Scenarios() *rate.ScenarioTable {
	return e.scenarios
}

// Evaluate runs one evaluation. Malformed numbers and missing prices
// degrade to zero with a diagnostic; only an unknown tax scenario key or
// offer denomination is returned as an error.
func (e *Engine) Evaluate(req Request) (*Evaluation, error) {
	var diags diagnostics.List

	offers := make([]Offer, len(req.Offers))
	for i, o := range req.Offers {
		d, err := compare.ParseDenomination(string(o.Denomination))
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInput, err, "offer %q", o.Label)
		}
		o.Denomination = d
		offers[i] = o
	}

	rates, err := e.rates(req, &diags)
	if err != nil {
		return nil, err
	}

	r := req.Recipe
	if len(req.Lines) > 0 {
		r.Lines = append(append([]recipe.Line(nil), r.Lines...), e.lines(req.Lines, &diags)...)
	}
	for _, material := range determinism.SortedKeys(req.PriceOverrides) {
		r = r.WithPrice(material, e.number(req.PriceOverrides[material], "price_override:"+material, &diags))
	}

	breakdown := recipe.Resolve(r, req.Prices)
	diags.Extend(breakdown.Diagnostics)

	entries := make([]compare.Entry, 0, len(req.Offers)+1)
	entries = append(entries, compare.CoinEntry(SelfProductionLabel, breakdown.Total))
	multiplier := decimal.NewFromInt(int64(breakdown.ProductionQuantity))
	for _, o := range offers {
		amount := e.number(o.Price, "offer:"+o.Label, &diags)
		if o.PerUnit {
			amount = amount.Mul(multiplier)
		}
		entries = append(entries, compare.Entry{Label: o.Label, Amount: amount, Denomination: o.Denomination})
	}

	for _, en := range entries {
		if !en.Available() {
			diags.Info(diagnostics.CodeChannelUnavailable, en.Label, "no usable price, channel excluded")
		}
	}

	result := compare.Compare(entries, rates.Selected.Rate.Value())
	if result.Status == compare.StatusRateUndefined {
		diags.Warn(diagnostics.CodeRateUndefined, "rate", "no positive exchange rate, coin costs cannot be converted")
	}

	ev := &Evaluation{
		ID:          uuid.NewString(),
		InputHash:   inputHash(req),
		Series:      r.Series,
		Part:        r.Part,
		Quantity:    breakdown.ProductionQuantity,
		Rates:       rates,
		Materials:   breakdown,
		Entries:     entries,
		Comparison:  result,
		Diagnostics: diags,
		EvaluatedAt: e.now().UTC(),
	}

	e.logger.Debug("evaluation complete",
		zap.String("id", ev.ID),
		zap.String("series", ev.Series),
		zap.String("part", ev.Part),
		zap.String("status", string(result.Status)),
		zap.String("best", result.Best),
		zap.Int("diagnostics", len(diags)),
	)
	diags.Log(e.logger.With(zap.String("evaluation", ev.ID)))

	return ev, nil
}

// Rates evaluates only the exchange side of a request
func (e *Engine) Rates(retail RetailInput, bulk BulkInput, dir rate.Direction) (RateSummary, diagnostics.List, error) {
	var diags diagnostics.List
	summary, err := e.rates(Request{Retail: retail, Bulk: bulk, Direction: dir}, &diags)
	return summary, diags, err
}

func (e *Engine) rates(req Request, diags *diagnostics.List) (RateSummary, error) {
	var s RateSummary

	retailScenario, err := e.scenario(req.Retail.Scenario, e.defaults.RetailScenario)
	if err != nil {
		return s, err
	}
	bulkScenario, err := e.scenario(req.Bulk.Scenario, e.defaults.BulkScenario)
	if err != nil {
		return s, err
	}

	s.RetailScenario = retailScenario
	s.RetailRaw = e.number(req.Retail.Rate, "retail.rate", diags)
	s.RetailNet = rate.Normalize(rate.Quote{RawRate: s.RetailRaw, TaxCoefficient: retailScenario.Coefficient})

	bulk := rate.BulkQuote{
		CurrencyPaid:   e.number(req.Bulk.CurrencyPaid, "bulk.currency_paid", diags),
		CoinReceived:   e.number(req.Bulk.CoinReceived, "bulk.coin_received", diags),
		TaxCoefficient: bulkScenario.Coefficient,
	}
	s.BulkScenario = bulkScenario
	s.BulkCurrencyPaid = bulk.CurrencyPaid
	s.BulkCoinRaw = bulk.CoinReceived
	s.BulkCoinNet = rate.NetCoin(bulk)
	s.BulkNet = rate.NormalizeBulk(bulk)

	s.Selected = rate.SelectBest(s.RetailNet, s.BulkNet, req.Direction)
	return s, nil
}

func (e *Engine) scenario(key, fallback string) (rate.Scenario, error) {
	if key == "" {
		key = fallback
	}
	if _, err := e.scenarios.Coefficient(key); err != nil {
		return rate.Scenario{}, err
	}
	s, _ := e.scenarios.Lookup(key)
	return s, nil
}

// number parses a user-entered value. Empty input is simply zero; anything
// else that fails to parse is zero with a diagnostic.
func (e *Engine) number(input magnitude.Input, subject string, diags *diagnostics.List) decimal.Decimal {
	d, err := input.Parse()
	if err != nil {
		if input != "" {
			diags.Warn(diagnostics.CodeMalformedNumber, subject, "could not parse %q, using 0", input)
		}
		return decimal.Zero
	}
	return d
}

func (e *Engine) lines(in []LineInput, diags *diagnostics.List) []recipe.Line {
	out := make([]recipe.Line, 0, len(in))
	for _, l := range in {
		qty := e.number(l.Quantity, "line:"+l.Material+".quantity", diags)
		if l.UnitPrice == "" {
			out = append(out, recipe.NewLine(l.Material, qty))
			continue
		}
		out = append(out, recipe.PricedLine(l.Material, qty, e.number(l.UnitPrice, "line:"+l.Material+".unit_price", diags)))
	}
	return out
}

func inputHash(req Request) string {
	h, err := determinism.HashJSON(req)
	if err != nil {
		return ""
	}
	return h.Short()
}
