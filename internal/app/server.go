package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP API until ctx is canceled, then drains in-flight
// requests.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:         a.Config.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  a.Config.HTTP.ReadTimeout,
		WriteTimeout: a.Config.HTTP.WriteTimeout,
		IdleTimeout:  a.Config.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("starting api server", slog.String("addr", a.Config.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("api server failed", slog.Any("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.Logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		return err
	}
	return nil
}
