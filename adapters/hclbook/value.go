package hclbook

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"craft-cost/core/magnitude"
)

// valueKind classifies an attribute value before it is turned into a decimal
type valueKind int

const (
	kindUnknown valueKind = iota
	kindNull
	kindString
	kindNumber
	kindOther
)

// classify inspects val. Unknown values are checked first; they can never be
// converted.
func classify(val cty.Value) valueKind {
	switch {
	case !val.IsKnown():
		return kindUnknown
	case val.IsNull():
		return kindNull
	case val.Type() == cty.String:
		return kindString
	case val.Type() == cty.Number:
		return kindNumber
	default:
		return kindOther
	}
}

// toDecimal converts a number or a shorthand string ("35W") into a decimal
func toDecimal(val cty.Value) (decimal.Decimal, error) {
	switch classify(val) {
	case kindString:
		return magnitude.ParseString(val.AsString())
	case kindNumber:
		return decimal.NewFromString(val.AsBigFloat().Text('f', -1))
	case kindNull:
		return decimal.Zero, fmt.Errorf("value is null")
	case kindUnknown:
		return decimal.Zero, fmt.Errorf("value is not known")
	default:
		return decimal.Zero, fmt.Errorf("expected a number or string, got %s", val.Type().FriendlyName())
	}
}
