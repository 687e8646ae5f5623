package hclbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"craft-cost/core/diagnostics"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
)

const sampleBook = `
price "Mithril Ore" {
  amount = "35W"
}

price "Blood Crystal" {
  amount = 1200
}

recipe "Abyss" "Longsword" {
  material "Mithril Ore" {
    quantity = 3
  }
  material "Blood Crystal" {
    quantity = "2"
  }
}

recipe "Abyss" "Ring" {
  material "Mithril Ore" {
    quantity = 1.5
  }
}
`

func TestParseBook(t *testing.T) {
	c, err := NewReader(nil).Parse([]byte(sampleBook), "book.hcl")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if p, _ := c.Price("Mithril Ore"); !p.Equal(decimal.NewFromInt(350000)) {
		t.Errorf("Expected 350000, got %s", p)
	}

	parts, err := c.Parts("Abyss")
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}
	if len(parts) != 2 || parts[0] != "Longsword" || parts[1] != "Ring" {
		t.Errorf("Unexpected parts: %v", parts)
	}

	r, err := c.Recipe("Abyss", "Longsword", 1)
	if err != nil {
		t.Fatalf("Recipe failed: %v", err)
	}
	// 3*350000 + 2*1200
	if got := recipe.Aggregate(r, c.Prices()); !got.Equal(decimal.NewFromInt(1052400)) {
		t.Errorf("Expected 1052400, got %s", got)
	}

	ring, _ := c.Recipe("Abyss", "Ring", 1)
	if !ring.Lines[0].Quantity.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Expected fractional quantity 1.5, got %s", ring.Lines[0].Quantity)
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := NewReader(nil).Parse([]byte("price \"x\" {\n  amount = \n"), "bad.hcl")
	if !errors.IsType(err, errors.TypeParsing) {
		t.Fatalf("Expected PARSING_ERROR, got %v", err)
	}

	var e *errors.Error
	if !errors.As(err, &e) || e.Context["file"] != "bad.hcl" {
		t.Errorf("Expected file context, got %+v", e)
	}
}

func TestParseMissingAmount(t *testing.T) {
	_, err := NewReader(nil).Parse([]byte(`price "x" {}`), "book.hcl")
	if !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("Expected PARSING_ERROR, got %v", err)
	}
}

func TestParseDuplicatePrice(t *testing.T) {
	src := `
price "x" {
  amount = 1
}
price "x" {
  amount = 2
}
`
	_, err := NewReader(nil).Parse([]byte(src), "book.hcl")
	if !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("Expected PARSING_ERROR, got %v", err)
	}
}

func TestParseMalformedAmountDegrades(t *testing.T) {
	src := `
price "x" {
  amount = "lots"
}
recipe "S" "P" {
  material "x" {
    quantity = true
  }
}
`
	c, err := NewReader(nil).Parse([]byte(src), "book.hcl")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := c.Price("x"); ok {
		t.Error("Malformed price should be left out")
	}
	if len(c.Diagnostics) != 2 || !c.Diagnostics.Has(diagnostics.CodeMalformedNumber) {
		t.Errorf("Expected two malformed number diagnostics, got %v", c.Diagnostics)
	}
	r, _ := c.Recipe("S", "P", 1)
	if !r.Lines[0].Quantity.IsZero() {
		t.Errorf("Expected quantity 0, got %s", r.Lines[0].Quantity)
	}
}

func TestParseSameNameTwice(t *testing.T) {
	reader := NewReader(nil)
	if _, err := reader.Parse([]byte(`price "a" { amount = 1 }`), "book.hcl"); err != nil {
		t.Fatal(err)
	}
	c, err := reader.Parse([]byte(`price "b" { amount = 2 }`), "book.hcl")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Price("b"); !ok {
		t.Error("Second parse returned stale content")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.hcl")
	if err := os.WriteFile(path, []byte(sampleBook), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewReader(nil).ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if c.Source != "book.hcl" {
		t.Errorf("Expected source book.hcl, got %q", c.Source)
	}

	if _, err := NewReader(nil).ParseFile(filepath.Join(t.TempDir(), "none.hcl")); !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("Expected PARSING_ERROR, got %v", err)
	}
}

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name    string
		val     cty.Value
		want    string
		wantErr bool
	}{
		{"number", cty.NumberIntVal(42), "42", false},
		{"fraction", cty.NumberFloatVal(0.25), "0.25", false},
		{"shorthand", cty.StringVal("1.2E"), "120000000", false},
		{"unknown", cty.UnknownVal(cty.Number), "0", true},
		{"null", cty.NullVal(cty.String), "0", true},
		{"bool", cty.True, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toDecimal(tt.val)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
