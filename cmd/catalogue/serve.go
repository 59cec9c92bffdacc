package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"book-catalogue/internal/adapter"
	xlog "book-catalogue/internal/log"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the catalogue and serve it over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := xlog.WithComponent("server")

	a, err := newApp(ctx, cfg, adapter.NewLogSink(xlog.WithComponent("sink")))
	if err != nil {
		return err
	}
	defer a.Close()

	state := a.loader.Load(ctx)
	logger.Info().Str(xlog.FieldNewState, string(state)).Msg("initial load finished")

	h := adapter.NewHTTPHandler(a.loader, xlog.WithComponent("http"), adapter.RateLimitConfig{
		RequestLimit: cfg.RefreshRateLimit,
		WindowSize:   cfg.RefreshWindow,
	})
	defer h.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           otelhttp.NewHandler(h.Routes(), "catalogue"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
