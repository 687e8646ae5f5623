package rate

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"craft-cost/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// Quote is a retail exchange quote: RawRate coin for one currency unit.
type Quote struct {
	RawRate        decimal.Decimal `json:"raw_rate"`
	TaxCoefficient decimal.Decimal `json:"tax_coefficient"`
}

// BulkQuote is a bulk purchase: CoinReceived coin for CurrencyPaid currency.
type BulkQuote struct {
	CurrencyPaid   decimal.Decimal `json:"currency_paid"`
	CoinReceived   decimal.Decimal `json:"coin_received"`
	TaxCoefficient decimal.Decimal `json:"tax_coefficient"`
}

// Normalize returns the retail rate net of tax.
func Normalize(q Quote) decimal.Decimal {
	return q.RawRate.Mul(q.TaxCoefficient)
}

// NetCoin returns the coin actually received from a bulk purchase after tax.
func NetCoin(q BulkQuote) decimal.Decimal {
	return q.CoinReceived.Mul(q.TaxCoefficient)
}

// NormalizeBulk returns the net coin per currency unit of a bulk purchase,
// or zero when nothing was paid.
func NormalizeBulk(q BulkQuote) decimal.Decimal {
	if !q.CurrencyPaid.IsPositive() {
		return decimal.Zero
	}
	return NetCoin(q).Div(q.CurrencyPaid)
}

// Source names where a selected rate came from
type Source string

const (
	SourceNone   Source = "none"
	SourceRetail Source = "retail"
	SourceBulk   Source = "bulk"
)

// Direction states which way currency and coin are being exchanged, which
// decides whether the larger or the smaller rate is the favourable one.
type Direction int

const (
	// Acquire means buying coin with currency; more coin per currency is better.
	Acquire Direction = iota

	// Liquidate means valuing held coin in currency; the smaller rate is the
	// conservative choice because it yields the higher currency value per coin.
	Liquidate
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Liquidate:
		return "liquidate"
	default:
		return "acquire"
	}
}

// ParseDirection parses "acquire" (the default for an empty string) or "liquidate".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "acquire":
		return Acquire, nil
	case "liquidate":
		return Liquidate, nil
	default:
		return Acquire, errors.Input("unknown rate direction %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Rate is an effective exchange rate in coin per currency unit. A rate that
// is not positive is undefined and refuses to convert.
type Rate struct {
	value decimal.Decimal
}

// NewRate wraps a coin-per-currency value
func NewRate(coinPerCurrency decimal.Decimal) Rate {
	return Rate{value: coinPerCurrency}
}

// Value returns the coin per currency unit
func (r Rate) Value() decimal.Decimal {
	return r.value
}

// Defined reports whether the rate can be used for conversion
func (r Rate) Defined() bool {
	return r.value.IsPositive()
}

// CoinToCurrency converts a coin amount to currency. ok is false on an
// undefined rate and nothing is divided.
func (r Rate) CoinToCurrency(coin decimal.Decimal) (decimal.Decimal, bool) {
	if !r.Defined() {
		return decimal.Zero, false
	}
	return coin.Div(r.value), true
}

// CurrencyToCoin converts a currency amount to coin.
func (r Rate) CurrencyToCoin(currency decimal.Decimal) (decimal.Decimal, bool) {
	if !r.Defined() {
		return decimal.Zero, false
	}
	return currency.Mul(r.value), true
}

// String renders the rate as "1:30800"
func (r Rate) String() string {
	if !r.Defined() {
		return "undefined"
	}
	return "1:" + r.value.StringFixed(0)
}

// MarshalJSON renders the rate value, or null when undefined
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts a number, a numeric string or null
func (r *Rate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		r.value = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	r.value = d
	return nil
}

// Selection is the outcome of choosing between the retail and bulk rates
type Selection struct {
	Rate      Rate      `json:"rate"`
	Source    Source    `json:"source"`
	Direction Direction `json:"direction"`

	// Advantage is how much better, in percent of the other rate, the chosen
	// rate is. Zero unless both rates were available.
	Advantage decimal.Decimal `json:"advantage_percent"`
}

// SelectBest picks between a retail and a bulk effective rate. With both
// positive, Acquire takes the larger and Liquidate the smaller; ties go to
// retail. With one positive, that one is used. With neither, the selection
// is undefined.
func SelectBest(retail, bulk decimal.Decimal, dir Direction) Selection {
	sel := Selection{Source: SourceNone, Direction: dir, Advantage: decimal.Zero}

	switch {
	case retail.IsPositive() && bulk.IsPositive():
		useBulk := bulk.GreaterThan(retail)
		if dir == Liquidate {
			useBulk = bulk.LessThan(retail)
		}
		if useBulk {
			sel.Rate, sel.Source = NewRate(bulk), SourceBulk
			sel.Advantage = advantage(bulk, retail)
		} else {
			sel.Rate, sel.Source = NewRate(retail), SourceRetail
			sel.Advantage = advantage(retail, bulk)
		}
	case retail.IsPositive():
		sel.Rate, sel.Source = NewRate(retail), SourceRetail
	case bulk.IsPositive():
		sel.Rate, sel.Source = NewRate(bulk), SourceBulk
	}
	return sel
}

// advantage is |chosen - other| / other in percent
func advantage(chosen, other decimal.Decimal) decimal.Decimal {
	return chosen.Sub(other).Abs().Div(other).Mul(hundred)
}
