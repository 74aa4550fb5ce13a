package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sqler/sqler/internal/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question pipeline over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.HTTP.Address = serveAddr
		}
		a, err := app.New(ctx, cfg, logger, app.ModeServer)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		return a.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides SQLER_HTTP_ADDR")
}
