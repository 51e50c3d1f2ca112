package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"gold-price-alerts/internal/httpapi"
)

// Serve runs the HTTP API until interrupted, then drains connections within
// the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	server := httpapi.New(a.newService(store), a.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(a.Config.API.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down http server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.Config.API.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
