// Package catalog holds recipe and price tables loaded from a recipe book
// (workbook or HCL file) and turns them into recipes for the engine.
package catalog

import (
	"github.com/shopspring/decimal"

	"craft-cost/core/category"
	"craft-cost/core/diagnostics"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
)

// Row is one line of the recipe table
type Row struct {
	Series   string          `json:"series"`
	Part     string          `json:"part"`
	Material string          `json:"material"`
	Quantity decimal.Decimal `json:"quantity"`
}

// PartInfo describes one craftable part
type PartInfo struct {
	Series    string            `json:"series"`
	Part      string            `json:"part"`
	Category  category.Category `json:"category"`
	Materials int               `json:"materials"`
}

// Catalog is an immutable view over a recipe table and a price table.
type Catalog struct {
	// Source names where the catalog was read from
	Source string

	rows   []Row
	prices recipe.PriceBook

	// Diagnostics collected while loading
	Diagnostics diagnostics.List

	series []string
	parts  map[string][]string
}

// New builds a catalog. Series and parts keep their first-seen order.
func New(source string, rows []Row, prices recipe.PriceBook) *Catalog {
	c := &Catalog{
		Source: source,
		rows:   append([]Row(nil), rows...),
		prices: make(recipe.PriceBook, len(prices)),
		parts:  make(map[string][]string),
	}
	for k, v := range prices {
		c.prices[k] = v
	}

	seenPart := make(map[[2]string]struct{})
	for _, r := range c.rows {
		if _, ok := c.parts[r.Series]; !ok {
			c.series = append(c.series, r.Series)
			c.parts[r.Series] = nil
		}
		key := [2]string{r.Series, r.Part}
		if _, ok := seenPart[key]; !ok {
			seenPart[key] = struct{}{}
			c.parts[r.Series] = append(c.parts[r.Series], r.Part)
		}
	}
	return c
}

// Series returns every series in first-seen order
func (c *Catalog) Series() []string {
	return append([]string(nil), c.series...)
}

// Parts returns the parts of series in first-seen order
func (c *Catalog) Parts(series string) ([]string, error) {
	parts, ok := c.parts[series]
	if !ok {
		return nil, errors.NotFound("series", series)
	}
	return append([]string(nil), parts...), nil
}

// Describe lists the parts of series with their category
func (c *Catalog) Describe(series string, classifier *category.Classifier) ([]PartInfo, error) {
	parts, err := c.Parts(series)
	if err != nil {
		return nil, err
	}
	infos := make([]PartInfo, 0, len(parts))
	for _, p := range parts {
		infos = append(infos, PartInfo{
			Series:    series,
			Part:      p,
			Category:  classifier.Classify(p),
			Materials: len(c.rowsFor(series, p)),
		})
	}
	return infos, nil
}

// Categories returns the categories present in series, in display order
func (c *Catalog) Categories(series string, classifier *category.Classifier) ([]category.Category, error) {
	parts, err := c.Parts(series)
	if err != nil {
		return nil, err
	}
	seen := make(map[category.Category]struct{})
	var cats []category.Category
	for _, p := range parts {
		cat := classifier.Classify(p)
		if _, ok := seen[cat]; !ok {
			seen[cat] = struct{}{}
			cats = append(cats, cat)
		}
	}
	classifier.Sort(cats)
	return cats, nil
}

// Prices returns a copy of the price table
func (c *Catalog) Prices() recipe.PriceBook {
	out := make(recipe.PriceBook, len(c.prices))
	for k, v := range c.prices {
		out[k] = v
	}
	return out
}

// Price returns the base price of material
func (c *Catalog) Price(material string) (decimal.Decimal, bool) {
	p, ok := c.prices[material]
	return p, ok
}

// Recipe builds the recipe for series/part producing quantity items. Lines
// carry no price; the engine resolves them against Prices.
func (c *Catalog) Recipe(series, part string, quantity int) (recipe.Recipe, error) {
	if _, ok := c.parts[series]; !ok {
		return recipe.Recipe{}, errors.NotFound("series", series)
	}
	rows := c.rowsFor(series, part)
	if len(rows) == 0 {
		return recipe.Recipe{}, errors.NotFound("part", series+"/"+part)
	}

	r := recipe.New(series, part)
	for _, row := range rows {
		r.Lines = append(r.Lines, recipe.NewLine(row.Material, row.Quantity))
	}
	return r.WithQuantity(quantity), nil
}

func (c *Catalog) rowsFor(series, part string) []Row {
	var out []Row
	for _, r := range c.rows {
		if r.Series == series && r.Part == part {
			out = append(out, r)
		}
	}
	return out
}
