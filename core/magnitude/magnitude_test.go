package magnitude

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"craft-cost/internal/errors"
)

func TestParseShorthand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000W", "10000000"},
		{"1.2E", "120000000"},
		{"5K", "5000"},
		{"35000", "35000"},
		{" 35,000 ", "35000"},
		{"1000w", "10000000"},
		{"1.2e", "120000000"},
		{"3萬", "30000"},
		{"2億", "200000000"},
		{"12.5 W", "125000"},
		{".5K", "500"},
	}

	for _, tt := range tests {
		got := Parse(tt.input)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Parse(%q): expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestParseFailSoftToZero(t *testing.T) {
	inputs := []string{
		"garbage",
		"",
		"   ",
		"W",
		"1.2.3",
		"-5",
		"1E5",
		"1W2",
		"1WE",
		"12abc",
	}

	for _, in := range inputs {
		got := Parse(in)
		if !got.IsZero() {
			t.Errorf("Parse(%q): expected 0, got %s", in, got)
		}
		if _, err := ParseString(in); !errors.IsType(err, errors.TypeParsing) {
			t.Errorf("ParseString(%q): expected PARSING_ERROR, got %v", in, err)
		}
	}
}

func TestParseNumericPassThrough(t *testing.T) {
	if got := Parse(42); !got.Equal(decimal.NewFromInt(42)) {
		t.Errorf("Parse(42): expected 42, got %s", got)
	}
	if got := Parse(42.5); !got.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("Parse(42.5): expected 42.5, got %s", got)
	}
	d := decimal.RequireFromString("-7.25")
	if got := Parse(d); !got.Equal(d) {
		t.Errorf("Parse(decimal): expected %s unchanged, got %s", d, got)
	}
	forty2 := decimal.NewFromInt(42)
	for _, in := range []interface{}{
		int8(42), int16(42), int32(42), int64(42),
		uint(42), uint8(42), uint16(42), uint32(42), uint64(42),
		float32(42), json.Number("42"),
	} {
		if got := Parse(in); !got.Equal(forty2) {
			t.Errorf("Parse(%T): expected 42, got %s", in, got)
		}
	}
	if got := Parse(uint64(math.MaxUint64)); got.String() != "18446744073709551615" {
		t.Errorf("Parse(MaxUint64): expected 18446744073709551615, got %s", got)
	}
	if got := Parse(json.Number("1.5e3")); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Parse(json.Number 1.5e3): expected 1500, got %s", got)
	}
	if got := Parse(json.Number("abc")); !got.IsZero() {
		t.Errorf("Parse(bad json.Number): expected 0, got %s", got)
	}
	if got := Parse(math.NaN()); !got.IsZero() {
		t.Errorf("Parse(NaN): expected 0, got %s", got)
	}
	if got := Parse(math.Inf(1)); !got.IsZero() {
		t.Errorf("Parse(+Inf): expected 0, got %s", got)
	}
	if got := Parse(nil); !got.IsZero() {
		t.Errorf("Parse(nil): expected 0, got %s", got)
	}
	if got := Parse(struct{}{}); !got.IsZero() {
		t.Errorf("Parse(struct): expected 0, got %s", got)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, in := range []string{"1200W", "1.2E", "950"} {
		d := MustParse(in)
		if got := MustParse(Format(d)); !got.Equal(d) {
			t.Errorf("Format(%s) = %q does not parse back to the same value", d, Format(d))
		}
	}
	if got := Format(decimal.NewFromInt(12_000_000)); got != "1200W" {
		t.Errorf("Expected 1200W, got %s", got)
	}
}

func TestInputUnmarshalJSON(t *testing.T) {
	var v struct {
		A Input `json:"a"`
		B Input `json:"b"`
		C Input `json:"c"`
		D Input `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"35W","b":1200,"c":1e5,"d":null}`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v.A != "35W" || v.B != "1200" || v.C != "100000" || v.D != "" {
		t.Errorf("Unexpected inputs: %+v", v)
	}
	if d, err := v.A.Parse(); err != nil || !d.Equal(decimal.NewFromInt(350000)) {
		t.Errorf("Expected 350000, got %s (%v)", d, err)
	}

	if err := json.Unmarshal([]byte(`{"a":true}`), &v); err == nil {
		t.Error("Expected error for a boolean amount")
	}
}
