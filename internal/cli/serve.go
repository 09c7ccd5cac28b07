package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "budget/internal/http"
	"budget/internal/log"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if host != "" {
				a.cfg.Host = host
			}
			if port != "" {
				a.cfg.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, a)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides HOST)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down within the
// configured timeout.
func runServer(ctx context.Context, a *app) error {
	srv := apphttp.NewServer(a.cfg.Addr(), a.svc, apphttp.ServerConfig{
		Logger:            a.logger,
		Locale:            a.cfg.Locale,
		RequestsPerMinute: a.cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting budget server",
			"addr", a.cfg.Addr(),
			"backend", a.cfg.DataBackend,
			log.FieldFile, a.cfg.DataFile,
			"events_enabled", a.backend.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		a.logger.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}
