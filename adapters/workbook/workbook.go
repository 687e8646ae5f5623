// Package workbook loads recipe books from .xlsx workbooks: a recipe sheet
// with one row per (series, part, material) and a price sheet whose first
// two columns are material and base price.
package workbook

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"craft-cost/core/catalog"
	"craft-cost/core/diagnostics"
	"craft-cost/core/magnitude"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

// Layout names the sheets and recipe columns of a workbook
type Layout struct {
	RecipeSheet string
	PriceSheet  string

	SeriesColumn   string
	PartColumn     string
	MaterialColumn string
	QuantityColumn string
}

// DefaultLayout is the layout of the cost workbook
func DefaultLayout() Layout {
	return Layout{
		RecipeSheet:    "Data_Recipes",
		PriceSheet:     "Price_List",
		SeriesColumn:   "系列",
		PartColumn:     "部位",
		MaterialColumn: "材料名稱",
		QuantityColumn: "需求數量",
	}
}

// Loader reads workbooks into catalogs
type Loader struct {
	layout Layout
	logger *zap.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(layout Layout, logger *zap.Logger) *Loader {
	return &Loader{layout: layout, logger: logging.OrNop(logger)}
}

// Discover returns the most recently modified workbook in dir whose name
// starts with prefix and contains keyword. Office lock files (~$) are skipped.
func Discover(dir, prefix, keyword string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Workbook("failed to read workbook directory", err).WithContext("dir", dir)
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.Contains(name, keyword) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = name, info.ModTime()
		}
	}

	if best == "" {
		return "", errors.NotFound("workbook", filepath.Join(dir, prefix+"*"+keyword+"*.xlsx"))
	}
	return filepath.Join(dir, best), nil
}

// Load opens the workbook at path
func (l *Loader) Load(ctx context.Context, path string) (*catalog.Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Workbook("failed to open workbook", err).WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	return l.read(ctx, f, filepath.Base(path))
}

// Read loads a workbook from r; source names it in the resulting catalog
func (l *Loader) Read(ctx context.Context, r io.Reader, source string) (*catalog.Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Workbook("failed to read workbook", err).WithContext("source", source)
	}
	defer func() { _ = f.Close() }()

	return l.read(ctx, f, source)
}

func (l *Loader) read(ctx context.Context, f *excelize.File, source string) (*catalog.Catalog, error) {
	var diags diagnostics.List

	rows, err := l.recipeRows(ctx, f, &diags)
	if err != nil {
		return nil, err
	}
	prices, err := l.priceRows(ctx, f, &diags)
	if err != nil {
		return nil, err
	}

	c := catalog.New(source, rows, prices)
	c.Diagnostics = diags

	l.logger.Debug("workbook loaded",
		zap.String("source", source),
		zap.Int("rows", len(rows)),
		zap.Int("prices", len(prices)),
		zap.Int("series", len(c.Series())),
	)
	diags.Log(l.logger.With(zap.String("source", source)))
	return c, nil
}

func (l *Loader) recipeRows(ctx context.Context, f *excelize.File, diags *diagnostics.List) ([]catalog.Row, error) {
	sheet := l.layout.RecipeSheet
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Workbook("failed to read recipe sheet", err).WithContext("sheet", sheet)
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.TypeWorkbook, "recipe sheet is empty").WithContext("sheet", sheet)
	}

	// header names are trimmed before matching
	index := make(map[string]int)
	for i, h := range raw[0] {
		index[strings.TrimSpace(h)] = i
	}
	cols := make([]int, 3)
	for i, name := range []string{
		l.layout.SeriesColumn,
		l.layout.PartColumn,
		l.layout.MaterialColumn,
	} {
		idx, ok := index[name]
		if !ok {
			return nil, errors.New(errors.TypeWorkbook, "recipe sheet is missing a column").
				WithContext("sheet", sheet).
				WithContext("column", name)
		}
		cols[i] = idx
	}

	// without a quantity column every line needs 0 of its material
	qtyCol, hasQty := index[l.layout.QuantityColumn]
	if !hasQty {
		qtyCol = -1
		diags.Warn(diagnostics.CodeMissingColumn, sheet, "no %q column, quantities are 0", l.layout.QuantityColumn)
	}

	var rows []catalog.Row
	for n := 1; n < len(raw); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := raw[n]
		series, part, material := cell(row, cols[0]), cell(row, cols[1]), cell(row, cols[2])
		qtyText := cell(row, qtyCol)

		if series == "" && part == "" && material == "" && qtyText == "" {
			continue
		}
		subject := rowSubject(sheet, n+1)
		if series == "" || part == "" || material == "" {
			diags.Warn(diagnostics.CodeSkippedRow, subject, "series, part and material are required")
			continue
		}

		qty := decimal.Zero
		if hasQty {
			var err error
			if qty, err = magnitude.ParseString(qtyText); err != nil {
				diags.Warn(diagnostics.CodeMalformedNumber, subject, "quantity %q for %s, using 0", qtyText, material)
				qty = decimal.Zero
			}
		}
		rows = append(rows, catalog.Row{Series: series, Part: part, Material: material, Quantity: qty})
	}
	return rows, nil
}

func (l *Loader) priceRows(ctx context.Context, f *excelize.File, diags *diagnostics.List) (recipe.PriceBook, error) {
	sheet := l.layout.PriceSheet
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Workbook("failed to read price sheet", err).WithContext("sheet", sheet)
	}

	prices := make(recipe.PriceBook)
	// first row is a header whatever it says
	for n := 1; n < len(raw); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := raw[n]
		material, priceText := cell(row, 0), cell(row, 1)
		if material == "" {
			continue
		}
		if priceText == "" {
			continue
		}
		price, err := magnitude.ParseString(priceText)
		if err != nil {
			diags.Warn(diagnostics.CodeMalformedNumber, rowSubject(sheet, n+1), "price %q for %s ignored", priceText, material)
			continue
		}
		// later rows override earlier ones
		prices[material] = price
	}
	return prices, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func rowSubject(sheet string, rowNo int) string {
	name, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return sheet
	}
	return sheet + "!" + name
}
