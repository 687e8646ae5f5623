// Package cmd - recipe book loading shared by evaluate, catalog and serve
package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"craft-cost/adapters/hclbook"
	"craft-cost/adapters/workbook"
	"craft-cost/core/catalog"
	"craft-cost/internal/config"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

// bookFlags select the recipe book a command reads
type bookFlags struct {
	workbook string
	hcl      string
	dir      string
	faction  string
}

func (b *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.workbook, "workbook", "", "recipe workbook (.xlsx)")
	cmd.Flags().StringVar(&b.hcl, "hcl", "", "recipe book in HCL")
	cmd.Flags().StringVar(&b.dir, "dir", "", "directory searched for the newest workbook (default from config)")
	cmd.Flags().StringVar(&b.faction, "faction", "", "faction whose workbook is discovered (default from config)")
}

// load reads the selected book. With neither --workbook nor --hcl the newest
// workbook for the faction is discovered.
func (b *bookFlags) load(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	if b.workbook != "" && b.hcl != "" {
		return nil, errors.Input("--workbook and --hcl are mutually exclusive")
	}

	var (
		book *catalog.Catalog
		err  error
	)
	switch {
	case b.hcl != "":
		book, err = hclbook.NewReader(logging.Named("hclbook")).ParseFile(b.hcl)
	default:
		path := b.workbook
		if path == "" {
			path, err = b.discover(cfg)
			if err != nil {
				return nil, err
			}
		}
		book, err = workbook.NewLoader(layout(cfg), logging.Named("workbook")).Load(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	logging.Debug("recipe book loaded",
		zap.String("source", book.Source),
		zap.Int("series", len(book.Series())),
		zap.Int("diagnostics", len(book.Diagnostics)),
	)
	return book, nil
}

func (b *bookFlags) discover(cfg *config.Config) (string, error) {
	keyword, err := cfg.FactionKeyword(b.faction)
	if err != nil {
		return "", err
	}
	dir := b.dir
	if dir == "" {
		dir = cfg.Workbook.Directory
	}
	return workbook.Discover(dir, cfg.Workbook.Prefix, keyword)
}

func layout(cfg *config.Config) workbook.Layout {
	l := workbook.DefaultLayout()
	wb := cfg.Workbook
	if wb.RecipeSheet != "" {
		l.RecipeSheet = wb.RecipeSheet
	}
	if wb.PriceSheet != "" {
		l.PriceSheet = wb.PriceSheet
	}
	if wb.Columns.Series != "" {
		l.SeriesColumn = wb.Columns.Series
	}
	if wb.Columns.Part != "" {
		l.PartColumn = wb.Columns.Part
	}
	if wb.Columns.Material != "" {
		l.MaterialColumn = wb.Columns.Material
	}
	if wb.Columns.Quantity != "" {
		l.QuantityColumn = wb.Columns.Quantity
	}
	return l
}

// splitPair splits "key=value" at the last '='
func splitPair(s string) (string, string, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return "", "", errors.Input("expected name=value, got %q", s)
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
}
