// Package recipe aggregates the coin cost of crafting from a bill of materials.
package recipe

import (
	"github.com/shopspring/decimal"

	"craft-cost/internal/errors"
)

// PriceBook maps material names to unit prices in coin. Lookups are exact:
// case and surrounding whitespace matter.
type PriceBook map[string]decimal.Decimal

// Line is one material requirement. UnitPrice is optional; when it is not
// Valid the price comes from the price book at aggregation time.
type Line struct {
	Material  string              `json:"material"`
	Quantity  decimal.Decimal     `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
}

// Recipe is an ordered bill of materials and how many items to make.
type Recipe struct {
	Series string `json:"series,omitempty"`
	Part   string `json:"part,omitempty"`
	Lines  []Line `json:"lines"`

	// ProductionQuantity multiplies the aggregate, not each line.
	ProductionQuantity int `json:"production_quantity"`
}

// New builds a recipe for a single item
func New(series, part string, lines ...Line) Recipe {
	return Recipe{Series: series, Part: part, Lines: lines, ProductionQuantity: 1}
}

// NewLine builds a line with no price of its own
func NewLine(material string, quantity decimal.Decimal) Line {
	return Line{Material: material, Quantity: quantity}
}

// PricedLine builds a line that carries its own unit price
func PricedLine(material string, quantity, unitPrice decimal.Decimal) Line {
	return Line{Material: material, Quantity: quantity, UnitPrice: decimal.NewNullDecimal(unitPrice)}
}

// WithQuantity returns a copy producing n items
func (r Recipe) WithQuantity(n int) Recipe {
	out := r.clone()
	out.ProductionQuantity = n
	return out
}

// WithPrice returns a copy in which every line for material uses price,
// overriding the price book. The receiver is not modified.
func (r Recipe) WithPrice(material string, price decimal.Decimal) Recipe {
	out := r.clone()
	for i := range out.Lines {
		if out.Lines[i].Material == material {
			out.Lines[i].UnitPrice = decimal.NewNullDecimal(price)
		}
	}
	return out
}

// Validate reports duplicate materials, negative values and a production
// quantity below one. Aggregation tolerates all of these; loaders use
// Validate to reject bad books early.
func (r Recipe) Validate() error {
	if r.ProductionQuantity < 1 {
		return errors.Input("production quantity must be at least 1, got %d", r.ProductionQuantity)
	}
	seen := make(map[string]struct{}, len(r.Lines))
	for _, l := range r.Lines {
		if _, dup := seen[l.Material]; dup {
			return errors.Input("material %q listed more than once", l.Material).
				WithContext("series", r.Series).WithContext("part", r.Part)
		}
		seen[l.Material] = struct{}{}
		if l.Quantity.IsNegative() {
			return errors.Input("material %q has negative quantity %s", l.Material, l.Quantity)
		}
		if l.UnitPrice.Valid && l.UnitPrice.Decimal.IsNegative() {
			return errors.Input("material %q has negative price %s", l.Material, l.UnitPrice.Decimal)
		}
	}
	return nil
}

func (r Recipe) clone() Recipe {
	out := r
	out.Lines = make([]Line, len(r.Lines))
	copy(out.Lines, r.Lines)
	return out
}
