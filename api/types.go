// Package api - Request and response types
package api

import (
	"github.com/shopspring/decimal"

	"craft-cost/core/catalog"
	"craft-cost/core/category"
	"craft-cost/core/diagnostics"
	"craft-cost/core/engine"
	"craft-cost/core/magnitude"
	"craft-cost/core/rate"
	"craft-cost/core/recipe"
)

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an error
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseRequest is the input to POST /parse
type ParseRequest struct {
	Inputs []magnitude.Input `json:"inputs"`
}

// ParseResult is one parsed input
type ParseResult struct {
	Input     string           `json:"input"`
	Value     *decimal.Decimal `json:"value,omitempty"`
	Formatted string           `json:"formatted,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ParseResponse is the output of POST /parse
type ParseResponse struct {
	Results []ParseResult `json:"results"`
}

// RatesRequest is the input to POST /rates
type RatesRequest struct {
	Retail    engine.RetailInput `json:"retail"`
	Bulk      engine.BulkInput   `json:"bulk"`
	Direction rate.Direction     `json:"direction"`
}

// RatesResponse is the output of POST /rates
type RatesResponse struct {
	Rates       engine.RateSummary `json:"rates"`
	Diagnostics diagnostics.List   `json:"diagnostics,omitempty"`
}

// EvaluateRequest is the input to POST /evaluate. With Preset set, the
// saved inputs are loaded and every field given here overrides them.
type EvaluateRequest struct {
	Preset string `json:"preset,omitempty"`

	engine.Inputs
}

// PresetRequest is the body of PUT /presets/{name}
type PresetRequest struct {
	Description string        `json:"description,omitempty"`
	Inputs      engine.Inputs `json:"inputs"`
}

// ScenarioInfo describes a tax scenario
type ScenarioInfo struct {
	rate.Scenario
	LossPercent decimal.Decimal `json:"loss_percent"`
}

// SeriesResponse is the output of GET /catalog/series
type SeriesResponse struct {
	Source string   `json:"source"`
	Series []string `json:"series"`
}

// PartsResponse is the output of GET /catalog/series/{series}/parts
type PartsResponse struct {
	Series     string              `json:"series"`
	Categories []category.Category `json:"categories"`
	Parts      []catalog.PartInfo  `json:"parts"`
}

// PartResponse is the output of GET /catalog/series/{series}/parts/{part}
type PartResponse struct {
	Series    string            `json:"series"`
	Part      string            `json:"part"`
	Category  category.Category `json:"category"`
	Materials recipe.Breakdown  `json:"materials"`
}
