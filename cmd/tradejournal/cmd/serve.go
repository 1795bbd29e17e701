package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/api"
	"github.com/rustyeddy/tradejournal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the trade journal API until interrupted.

Routes:
  GET  /api/trades        list (sortKey, sortDirection, page, limit, from, to)
  POST /api/trades        add a trade
  GET  /api/trades/{id}   one trade
  GET  /api/ohlc          daily quote (ticker, date)
  GET  /api/pnl           cash-flow summary (from, to)
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sc := a.cfg.Server
	if serveAddr != "" {
		sc.Addr = serveAddr
	}
	srv := api.NewServer(a.svc, a.quotes, a.log, api.Config{
		Addr:            sc.Addr,
		AllowedOrigins:  sc.AllowedOrigins,
		ReadTimeout:     config.MustDuration(sc.ReadTimeout),
		WriteTimeout:    config.MustDuration(sc.WriteTimeout),
		IdleTimeout:     config.MustDuration(sc.IdleTimeout),
		ShutdownTimeout: config.MustDuration(sc.ShutdownTimeout),
		Version:         version,
	})
	return srv.Run(ctx)
}
