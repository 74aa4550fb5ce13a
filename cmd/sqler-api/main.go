package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqler/sqler/internal/app"
	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv("sqler-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.ModeServer)
	if err != nil {
		logger.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if err := a.Serve(ctx); err != nil {
		os.Exit(1)
	}
}
