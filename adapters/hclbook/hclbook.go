// Package hclbook reads recipe books written in HCL:
//
//	price "Mithril Ore" {
//	  amount = "35W"
//	}
//
//	recipe "Abyss" "Longsword" {
//	  material "Mithril Ore" {
//	    quantity = 3
//	  }
//	}
//
// Amounts and quantities may be numbers or shorthand strings.
package hclbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"craft-cost/core/catalog"
	"craft-cost/core/diagnostics"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "price", LabelNames: []string{"material"}},
		{Type: "recipe", LabelNames: []string{"series", "part"}},
	},
}

var priceSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "amount", Required: true},
	},
}

var recipeSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "material", LabelNames: []string{"name"}},
	},
}

var materialSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "quantity", Required: true},
	},
}

// Reader parses HCL recipe books
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a reader. A nil logger discards output.
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logging.OrNop(logger)}
}

// ParseFile reads and parses the book at path
func (r *Reader) ParseFile(path string) (*catalog.Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeParsing, "failed to read recipe book", err).WithContext("path", path)
	}
	return r.Parse(src, filepath.Base(path))
}

// Parse parses src; filename is used in error positions and as the catalog source
func (r *Reader) Parse(src []byte, filename string) (*catalog.Catalog, error) {
	// hclparse caches by file name, so each parse gets its own parser
	file, hdiags := hclparse.NewParser().ParseHCL(src, filename)
	if hdiags.HasErrors() {
		return nil, parseError(filename, hdiags)
	}

	content, hdiags := file.Body.Content(fileSchema)
	if hdiags.HasErrors() {
		return nil, parseError(filename, hdiags)
	}

	var (
		diags  diagnostics.List
		rows   []catalog.Row
		prices = make(recipe.PriceBook)
		seen   = make(map[string]hcl.Range)
	)

	for _, block := range content.Blocks {
		switch block.Type {
		case "price":
			material := block.Labels[0]
			if prev, dup := seen[material]; dup {
				return nil, parseError(filename, hcl.Diagnostics{{
					Severity: hcl.DiagError,
					Summary:  "Duplicate price",
					Detail:   fmt.Sprintf("%q already has a price at %s", material, prev),
					Subject:  block.DefRange.Ptr(),
				}})
			}
			seen[material] = block.DefRange

			amount, ok, err := decodeNumber(block.Body, priceSchema, "amount", filename, material, &diags)
			if err != nil {
				return nil, err
			}
			if ok {
				prices[material] = amount
			}

		case "recipe":
			series, part := block.Labels[0], block.Labels[1]
			body, hd := block.Body.Content(recipeSchema)
			if hd.HasErrors() {
				return nil, parseError(filename, hd)
			}
			if len(body.Blocks) == 0 {
				diags.Warn(diagnostics.CodeSkippedRow, series+"/"+part, "recipe has no materials")
			}
			for _, mb := range body.Blocks {
				material := mb.Labels[0]
				qty, _, err := decodeNumber(mb.Body, materialSchema, "quantity", filename, material, &diags)
				if err != nil {
					return nil, err
				}
				rows = append(rows, catalog.Row{Series: series, Part: part, Material: material, Quantity: qty})
			}
		}
	}

	c := catalog.New(filename, rows, prices)
	c.Diagnostics = diags

	r.logger.Debug("recipe book parsed",
		zap.String("source", filename),
		zap.Int("rows", len(rows)),
		zap.Int("prices", len(prices)),
	)
	diags.Log(r.logger.With(zap.String("source", filename)))
	return c, nil
}

// decodeNumber reads a single numeric attribute. Structural problems are
// errors; a value that is present but unusable is zero with a diagnostic.
func decodeNumber(body hcl.Body, schema *hcl.BodySchema, name, filename, subject string, diags *diagnostics.List) (decimal.Decimal, bool, error) {
	content, hd := body.Content(schema)
	if hd.HasErrors() {
		return decimal.Zero, false, parseError(filename, hd)
	}

	attr := content.Attributes[name]
	val, hd := attr.Expr.Value(nil)
	if hd.HasErrors() {
		return decimal.Zero, false, parseError(filename, hd)
	}

	d, err := toDecimal(val)
	if err != nil {
		diags.Warn(diagnostics.CodeMalformedNumber, subject, "%s at %s: %v, using 0", name, attr.Range, err)
		return decimal.Zero, false, nil
	}
	return d, true, nil
}

func parseError(filename string, hdiags hcl.Diagnostics) error {
	var msgs []string
	line := 0
	for _, d := range hdiags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if line == 0 && d.Subject != nil {
			line = d.Subject.Start.Line
		}
		msgs = append(msgs, d.Error())
	}
	return errors.Parsing("invalid recipe book", fmt.Errorf("%s", strings.Join(msgs, "; "))).
		WithContext("file", filename).
		WithContext("line", line)
}
