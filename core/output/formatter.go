// Package output renders evaluations for people and machines.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"craft-cost/core/compare"
	"craft-cost/core/engine"
	"craft-cost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Options control what a formatter includes
type Options struct {
	// ShowDetails includes the per-material breakdown
	ShowDetails bool

	// Color enables ANSI colours where the format supports them
	Color bool

	// Verbose includes informational diagnostics
	Verbose bool
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given evaluation
	Render(w io.Writer, ev *engine.Evaluation) error
}

// Registry manages formatter registration
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry returns a registry holding the built-in formatters
func NewRegistry(opts Options) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	_ = r.Register(NewCLIFormatter(opts))
	_ = r.Register(NewJSONFormatter())
	_ = r.Register(NewMarkdownFormatter(opts))
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	if _, exists := r.formatters[f.Format()]; exists {
		return errors.Newf(errors.TypeConfig, "formatter already registered: %s", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns the formatter for a format, or INPUT_ERROR if unknown
func (r *Registry) Get(format Format) (Formatter, error) {
	f, ok := r.formatters[format]
	if !ok {
		return nil, errors.Input("unknown output format %q (want one of %s)", format, strings.Join(r.names(), ", "))
	}
	return f, nil
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Coin formats a coin amount as a whole number with thousands grouping
func Coin(d decimal.Decimal) string {
	return group(d.Round(0).StringFixed(0))
}

// Currency formats a currency amount at two decimals with thousands grouping
func Currency(d decimal.Decimal) string {
	return group(d.StringFixed(2))
}

// Percent formats a percentage at two decimals
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// group inserts commas into the integer part of a fixed-point string
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}

// problem explains why an evaluation has no winner
func problem(ev *engine.Evaluation) string {
	switch ev.Comparison.Status {
	case compare.StatusRateUndefined:
		return "no positive exchange rate, coin costs cannot be converted"
	case compare.StatusInsufficientData:
		return "no channel has a usable price"
	default:
		return ""
	}
}

func marginText(ev *engine.Evaluation) string {
	m, ok := ev.Comparison.RunnerUp()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s cheaper than %s (%s)", Currency(m.Absolute), m.Label, Percent(m.Percent))
}

// amount formats a ranked entry in its own unit
func amount(r compare.Ranked) string {
	if r.Denomination == compare.Currency {
		return Currency(r.Amount)
	}
	return Coin(r.Amount)
}
