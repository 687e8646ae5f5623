package recipe

import (
	"github.com/shopspring/decimal"

	"craft-cost/core/diagnostics"
)

// PriceSource records where a line's unit price came from
type PriceSource string

const (
	PriceFromLine PriceSource = "line"
	PriceFromBook PriceSource = "price_book"
	PriceMissing  PriceSource = "missing"
)

// ResolvedLine is a line after price resolution
type ResolvedLine struct {
	Material  string          `json:"material"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Source    PriceSource     `json:"source"`

	// Cost is Quantity * UnitPrice for one item
	Cost decimal.Decimal `json:"cost"`
}

// Breakdown is the full result of resolving a recipe against a price book
type Breakdown struct {
	Lines []ResolvedLine `json:"lines"`

	// PerItem is the material cost of producing one item
	PerItem decimal.Decimal `json:"per_item"`

	// ProductionQuantity is the multiplier actually applied
	ProductionQuantity int `json:"production_quantity"`

	// Total is PerItem * ProductionQuantity, in coin
	Total decimal.Decimal `json:"total"`

	// Missing lists materials that had no price anywhere
	Missing []string `json:"missing,omitempty"`

	Diagnostics diagnostics.List `json:"diagnostics,omitempty"`
}

// Aggregate returns the total coin cost of r:
// productionQuantity * sum(quantity * unit price).
func Aggregate(r Recipe, prices PriceBook) decimal.Decimal {
	return Resolve(r, prices).Total
}

// Resolve prices every line of r and totals it. It never fails: missing
// prices count as zero, negative values are clamped to zero and a
// production quantity below one is treated as one, each with a diagnostic.
func Resolve(r Recipe, prices PriceBook) Breakdown {
	b := Breakdown{
		Lines:   make([]ResolvedLine, 0, len(r.Lines)),
		PerItem: decimal.Zero,
	}

	for _, l := range r.Lines {
		rl := ResolvedLine{Material: l.Material, Quantity: l.Quantity}

		if rl.Quantity.IsNegative() {
			b.Diagnostics.Warn(diagnostics.CodeNegativeValue, l.Material, "negative quantity %s treated as 0", l.Quantity)
			rl.Quantity = decimal.Zero
		}

		switch price, ok := prices[l.Material]; {
		case l.UnitPrice.Valid:
			rl.UnitPrice, rl.Source = l.UnitPrice.Decimal, PriceFromLine
		case ok:
			rl.UnitPrice, rl.Source = price, PriceFromBook
		default:
			rl.UnitPrice, rl.Source = decimal.Zero, PriceMissing
			b.Missing = append(b.Missing, l.Material)
			b.Diagnostics.Warn(diagnostics.CodeMissingPrice, l.Material, "no price for material, counted as 0")
		}

		if rl.UnitPrice.IsNegative() {
			b.Diagnostics.Warn(diagnostics.CodeNegativeValue, l.Material, "negative price %s treated as 0", rl.UnitPrice)
			rl.UnitPrice = decimal.Zero
		}

		rl.Cost = rl.Quantity.Mul(rl.UnitPrice)
		b.PerItem = b.PerItem.Add(rl.Cost)
		b.Lines = append(b.Lines, rl)
	}

	b.ProductionQuantity = r.ProductionQuantity
	if b.ProductionQuantity < 1 {
		b.Diagnostics.Warn(diagnostics.CodeInvalidQuantity, "production_quantity", "production quantity %d treated as 1", r.ProductionQuantity)
		b.ProductionQuantity = 1
	}

	b.Total = b.PerItem.Mul(decimal.NewFromInt(int64(b.ProductionQuantity)))
	return b
}
