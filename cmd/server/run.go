// file: cmd/server/run.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/config"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/metrics"
	"github.com/dkoosis/headlines/internal/transport"
)

// runServer serves d on the configured transport until the transport ends or
// SIGINT/SIGTERM arrives, then shuts down within server.shutdown_timeout.
func runServer(ctx context.Context, cfg *config.Config, d transport.Dispatcher, e env, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Server.Transport {
	case config.TransportStdio:
		srv, err := transport.NewStdioServer(d, e.stdin, e.stdout, cfg.Server.RequestTimeout, logging.GetLogger("stdio"))
		if err != nil {
			return err
		}
		if err := srv.Serve(ctx); err != nil {
			return errors.Wrap(err, "stdio transport failed")
		}
		logger.Info("Server shutdown complete.")
		return nil

	case config.TransportHTTP:
		srv, err := transport.NewHTTPServer(cfg.Server, d, metrics.NewCollector(), logging.GetLogger("http"))
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe(ctx)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return errors.Wrap(err, "http transport failed")
			}
			return nil
		case <-ctx.Done():
			logger.Info("Shutdown signal received.", "reason", context.Cause(ctx))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server shutdown error")
		}
		if err := <-errCh; err != nil {
			return errors.Wrap(err, "http transport failed")
		}
		logger.Info("Server shutdown complete.")
		return nil

	default:
		return errors.Newf("unsupported transport type: %s", cfg.Server.Transport)
	}
}
