// Package cmd - serve command
package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"craft-cost/api"
	"craft-cost/internal/config"
	"craft-cost/internal/logging"
)

var serveOpts struct {
	book      bookFlags
	addr      string
	noBook    bool
	noPresets bool
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the evaluation API. The recipe book is loaded once at start-up;
when none can be found the catalog endpoints are disabled and /evaluate
accepts explicit lines only. Presets are read from and written to the store
configured under [presets] unless --no-presets is given.

Examples:
  craft-cost serve
  craft-cost serve --addr :9090 --hcl book.hcl`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveOpts.book.register(serveCmd)
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveOpts.noBook, "no-book", false, "do not load a recipe book")
	serveCmd.Flags().BoolVar(&serveOpts.noPresets, "no-presets", false, "disable the preset endpoints")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := logging.Named("api")

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	opts := []api.Option{api.WithLogger(logger)}

	if !serveOpts.noBook {
		book, err := serveOpts.book.load(commandContext(cmd), cfg)
		if err != nil {
			if serveOpts.book.workbook != "" || serveOpts.book.hcl != "" {
				return err
			}
			logger.Warn("no recipe book loaded, catalog endpoints disabled", zap.Error(err))
		} else {
			opts = append(opts, api.WithCatalog(book))
		}
	}

	if !serveOpts.noPresets {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, api.WithStore(store))
	}

	addr := serveOpts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(version, eng, opts...)
	return server.ListenAndServe(ctx, addr,
		time.Duration(cfg.Server.ReadTimeoutSeconds)*time.Second,
		time.Duration(cfg.Server.WriteTimeoutSeconds)*time.Second,
	)
}
