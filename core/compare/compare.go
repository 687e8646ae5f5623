// Package compare ranks acquisition channels by their cost in currency.
package compare

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"craft-cost/core/rate"
	"craft-cost/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// Denomination is the unit an entry's amount is quoted in
type Denomination string

const (
	Coin     Denomination = "coin"
	Currency Denomination = "currency"
)

// ParseDenomination accepts coin or currency in any case. Empty means coin.
func ParseDenomination(s string) (Denomination, error) {
	switch d := Denomination(strings.ToLower(strings.TrimSpace(s))); d {
	case "", Coin:
		return Coin, nil
	case Currency:
		return Currency, nil
	default:
		return "", errors.Input("unknown denomination %q (use coin or currency)", s)
	}
}

// Entry is a channel and what it costs. An amount that is not positive
// means the channel is unavailable: a zero price never wins.
type Entry struct {
	Label        string          `json:"label"`
	Amount       decimal.Decimal `json:"amount"`
	Denomination Denomination    `json:"denomination"`
}

// CoinEntry builds an entry priced in coin
func CoinEntry(label string, amount decimal.Decimal) Entry {
	return Entry{Label: label, Amount: amount, Denomination: Coin}
}

// CurrencyEntry builds an entry priced in currency
func CurrencyEntry(label string, amount decimal.Decimal) Entry {
	return Entry{Label: label, Amount: amount, Denomination: Currency}
}

// Available reports whether the entry takes part in ranking
func (e Entry) Available() bool {
	return e.Amount.IsPositive()
}

// Status of a comparison
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusRateUndefined    Status = "rate_undefined"
)

// Ranked is an available entry with its currency cost
type Ranked struct {
	Label        string          `json:"label"`
	Denomination Denomination    `json:"denomination"`
	Amount       decimal.Decimal `json:"amount"`
	Cost         decimal.Decimal `json:"cost_in_currency"`
}

// Margin is how much more an entry costs than the best one
type Margin struct {
	Label    string          `json:"label"`
	Absolute decimal.Decimal `json:"absolute"`

	// Percent is relative to the losing entry's cost
	Percent decimal.Decimal `json:"percent"`
}

// Result is the outcome of Compare. Best is empty unless Status is ok.
type Result struct {
	Status   Status   `json:"status"`
	Ranked   []Ranked `json:"ranked,omitempty"`
	Best     string   `json:"best,omitempty"`
	Excluded []string `json:"excluded,omitempty"`

	// Margins holds one entry per ranked channel after the best, in rank order
	Margins []Margin `json:"margins,omitempty"`
}

// HasBest reports whether a winner was chosen
func (r Result) HasBest() bool {
	return r.Status == StatusOK && r.Best != ""
}

// BestCost returns the winning currency cost
func (r Result) BestCost() (decimal.Decimal, bool) {
	if !r.HasBest() {
		return decimal.Zero, false
	}
	return r.Ranked[0].Cost, true
}

// RunnerUp returns the margin against the second-ranked channel
func (r Result) RunnerUp() (Margin, bool) {
	if len(r.Margins) == 0 {
		return Margin{}, false
	}
	return r.Margins[0], true
}

// Compare converts every available entry to currency using coinPerCurrency
// and picks the cheapest. Ties keep input order, so the first listed entry
// wins. If a coin entry is available but the rate is not positive, nothing
// is converted and the status is rate_undefined.
func Compare(entries []Entry, coinPerCurrency decimal.Decimal) Result {
	r := rate.NewRate(coinPerCurrency)
	res := Result{Status: StatusOK}

	available := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Available() {
			res.Excluded = append(res.Excluded, e.Label)
			continue
		}
		available = append(available, e)
	}

	if len(available) == 0 {
		res.Status = StatusInsufficientData
		return res
	}

	for _, e := range available {
		cost := e.Amount
		if e.Denomination != Currency {
			converted, ok := r.CoinToCurrency(e.Amount)
			if !ok {
				res.Status = StatusRateUndefined
				res.Ranked = nil
				return res
			}
			cost = converted
		}
		res.Ranked = append(res.Ranked, Ranked{
			Label:        e.Label,
			Denomination: denomination(e),
			Amount:       e.Amount,
			Cost:         cost,
		})
	}

	sort.SliceStable(res.Ranked, func(i, j int) bool {
		return res.Ranked[i].Cost.LessThan(res.Ranked[j].Cost)
	})

	best := res.Ranked[0]
	res.Best = best.Label
	for _, other := range res.Ranked[1:] {
		diff := other.Cost.Sub(best.Cost)
		m := Margin{Label: other.Label, Absolute: diff, Percent: decimal.Zero}
		if other.Cost.IsPositive() {
			m.Percent = diff.Div(other.Cost).Mul(hundred)
		}
		res.Margins = append(res.Margins, m)
	}
	return res
}

func denomination(e Entry) Denomination {
	if e.Denomination == "" {
		return Coin
	}
	return e.Denomination
}
