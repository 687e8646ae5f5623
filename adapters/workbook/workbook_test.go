package workbook

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"craft-cost/core/diagnostics"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
)

func buildWorkbook(t *testing.T, recipes, prices [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	write := func(sheet string, rows [][]interface{}) {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet %s: %v", sheet, err)
		}
		for i, row := range rows {
			cellName, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(sheet, cellName, &r); err != nil {
				t.Fatalf("write %s row %d: %v", sheet, i+1, err)
			}
		}
	}
	if recipes != nil {
		write("Data_Recipes", recipes)
	}
	if prices != nil {
		write("Price_List", prices)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func sampleRecipes() [][]interface{} {
	return [][]interface{}{
		{" 系列 ", "部位", "材料名稱", "需求數量"},
		{"深淵", "深淵長劍", "秘銀礦", 3},
		{"深淵", "深淵長劍", "血晶", 1},
		{"深淵", "深淵戒指", "秘銀礦", 2},
		{"", "", "", ""},
		{"深淵", "", "血晶", 1},
		{"龍王", "龍王上衣", "龍鱗", "abc"},
	}
}

func samplePrices() [][]interface{} {
	return [][]interface{}{
		{"材料", "價格"},
		{"秘銀礦", 100},
		{"血晶", "0.5W"},
		{"龍鱗", "???"},
	}
}

func TestReadWorkbook(t *testing.T) {
	buf := buildWorkbook(t, sampleRecipes(), samplePrices())

	c, err := NewLoader(DefaultLayout(), nil).Read(context.Background(), buf, "test.xlsx")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	series := c.Series()
	if len(series) != 2 || series[0] != "深淵" || series[1] != "龍王" {
		t.Errorf("Unexpected series: %v", series)
	}

	r, err := c.Recipe("深淵", "深淵長劍", 1)
	if err != nil {
		t.Fatalf("Recipe failed: %v", err)
	}
	// 3*100 + 1*5000
	if got := recipe.Aggregate(r, c.Prices()); !got.Equal(decimal.NewFromInt(5300)) {
		t.Errorf("Expected 5300, got %s", got)
	}

	if p, ok := c.Price("血晶"); !ok || !p.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected shorthand price 5000, got %s", p)
	}
	if _, ok := c.Price("龍鱗"); ok {
		t.Error("Malformed price should be left out of the book")
	}

	if !c.Diagnostics.Has(diagnostics.CodeSkippedRow) {
		t.Error("Expected a skipped row diagnostic")
	}
	if !c.Diagnostics.Has(diagnostics.CodeMalformedNumber) {
		t.Error("Expected a malformed number diagnostic")
	}
}

func TestReadMissingSheet(t *testing.T) {
	buf := buildWorkbook(t, sampleRecipes(), nil)

	_, err := NewLoader(DefaultLayout(), nil).Read(context.Background(), buf, "test.xlsx")
	if !errors.IsType(err, errors.TypeWorkbook) {
		t.Errorf("Expected WORKBOOK_ERROR, got %v", err)
	}
}

func TestReadMissingColumn(t *testing.T) {
	recipes := [][]interface{}{
		{"系列", "材料名稱", "需求數量"},
		{"深淵", "秘銀礦", 3},
	}
	buf := buildWorkbook(t, recipes, samplePrices())

	_, err := NewLoader(DefaultLayout(), nil).Read(context.Background(), buf, "test.xlsx")
	if !errors.IsType(err, errors.TypeWorkbook) {
		t.Errorf("Expected WORKBOOK_ERROR, got %v", err)
	}
}

func TestReadMissingQuantityColumn(t *testing.T) {
	recipes := [][]interface{}{
		{"系列", "部位", "材料名稱"},
		{"深淵", "深淵長劍", "秘銀礦"},
		{"深淵", "深淵長劍", "血晶"},
	}
	buf := buildWorkbook(t, recipes, samplePrices())

	c, err := NewLoader(DefaultLayout(), nil).Read(context.Background(), buf, "test.xlsx")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	r, err := c.Recipe("深淵", "深淵長劍", 1)
	if err != nil {
		t.Fatalf("Recipe failed: %v", err)
	}
	if len(r.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(r.Lines))
	}
	if got := recipe.Aggregate(r, c.Prices()); !got.IsZero() {
		t.Errorf("Expected 0 without quantities, got %s", got)
	}

	count := 0
	for _, d := range c.Diagnostics {
		if d.Code == diagnostics.CodeMissingColumn {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected one missing column diagnostic, got %d", count)
	}
	if c.Diagnostics.Has(diagnostics.CodeMalformedNumber) {
		t.Error("Rows without a quantity column should not be reported one by one")
	}
}

func TestReadHonoursCancellation(t *testing.T) {
	buf := buildWorkbook(t, sampleRecipes(), samplePrices())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLoader(DefaultLayout(), nil).Read(ctx, buf, "test.xlsx"); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	buf := buildWorkbook(t, sampleRecipes(), samplePrices())
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := NewLoader(DefaultLayout(), nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Source != "book.xlsx" {
		t.Errorf("Expected source book.xlsx, got %q", c.Source)
	}
}

func TestDiscoverPicksNewestMatch(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string, age time.Duration) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		ts := time.Now().Add(-age)
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatal(err)
		}
	}

	touch("裝備成本戰情室_魔_v1.xlsx", 2*time.Hour)
	touch("裝備成本戰情室_魔_v2.xlsx", time.Hour)
	touch("裝備成本戰情室_天_v3.xlsx", 0)
	touch("~$裝備成本戰情室_魔_v4.xlsx", 0)
	touch("裝備成本戰情室_魔_v5.csv", 0)

	got, err := Discover(dir, "裝備成本戰情室", "魔")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if filepath.Base(got) != "裝備成本戰情室_魔_v2.xlsx" {
		t.Errorf("Expected v2, got %s", got)
	}

	if _, err := Discover(dir, "裝備成本戰情室", "龍"); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}
