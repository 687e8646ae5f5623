// Package magnitude parses numbers written in the shorthand players use for
// large coin amounts: "1000W" (x10,000), "1.2E" (x100,000,000), "5K" (x1,000).
package magnitude

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"craft-cost/internal/errors"
)

// Multipliers for the recognised markers
var (
	HundredMillion = decimal.NewFromInt(100_000_000)
	TenThousand    = decimal.NewFromInt(10_000)
	Thousand       = decimal.NewFromInt(1_000)
)

// marker is a suffix and the factor it stands for
type marker struct {
	suffix string
	factor decimal.Decimal
}

// Checked in order; the first suffix that matches wins.
var markers = []marker{
	{"E", HundredMillion},
	{"億", HundredMillion},
	{"W", TenThousand},
	{"萬", TenThousand},
	{"K", Thousand},
}

var plainDecimal = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// Parse converts input to a number and never fails. Numeric inputs are
// returned unchanged; strings go through ParseString and anything it rejects
// becomes zero.
func Parse(input interface{}) decimal.Decimal {
	switch v := input.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case int:
		return decimal.NewFromInt(int64(v))
	case int8:
		return decimal.NewFromInt(int64(v))
	case int16:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return decimal.NewFromInt(int64(v))
	case uint16:
		return decimal.NewFromInt(int64(v))
	case uint32:
		return decimal.NewFromInt(int64(v))
	case uint64:
		return fromUint(v)
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := ParseString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// ParseString is the strict form of Parse for strings. It returns a
// PARSING_ERROR for empty, negative or malformed input.
func ParseString(s string) (decimal.Decimal, error) {
	text := strings.ToUpper(strings.TrimSpace(s))
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return decimal.Zero, errors.Parsing("empty value", nil).WithContext("input", s)
	}

	factor := decimal.NewFromInt(1)
	for _, m := range markers {
		if strings.HasSuffix(text, m.suffix) {
			text = strings.TrimSpace(strings.TrimSuffix(text, m.suffix))
			factor = m.factor
			break
		}
	}

	if !plainDecimal.MatchString(text) {
		return decimal.Zero, errors.Parsing("not a number", nil).WithContext("input", s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, errors.Parsing("not a number", err).WithContext("input", s)
	}
	return d.Mul(factor), nil
}

// MustParse is ParseString for literals known to be valid. It panics otherwise.
func MustParse(s string) decimal.Decimal {
	d, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders d with the largest marker that keeps it at least 1,
// the inverse of ParseString for display ("12000000" -> "1200W").
func Format(d decimal.Decimal) string {
	switch abs := d.Abs(); {
	case abs.GreaterThanOrEqual(HundredMillion):
		return d.Div(HundredMillion).String() + "E"
	case abs.GreaterThanOrEqual(TenThousand):
		return d.Div(TenThousand).String() + "W"
	default:
		return d.String()
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatUint(u, 10))
}
