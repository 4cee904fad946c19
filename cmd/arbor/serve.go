package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves sessions over a JSON API: POST documents to /sessions/{id}/render and read back snapshots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		shutdownTimeout, err := cfg.Server.Shutdown()
		if err != nil {
			return err
		}

		b, err := openBackend(cfg.Store)
		if err != nil {
			return err
		}
		defer b.close()

		hooks := observability.LogHooks(logger)
		var handlerOpts []httpAdapter.Option
		handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger))
		if cfg.Metrics.Enabled {
			metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
			hooks = domain.MergeHooks(metrics.Hooks(), hooks)
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(cfg.Metrics.Path, prometheus.DefaultGatherer))
		}

		mgr := session.NewManager(b.store,
			session.WithLocker(b.locker),
			session.WithLogger(logger),
			session.WithLifecycleHooks(hooks),
		)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(mgr, handlerOpts...),
		}

		if isTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr, termenv.EnvColorProfile())
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Arbor Server", "addr", srv.Addr, "store", cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("Arbor Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides server.addr)")
}
