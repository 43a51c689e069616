package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aretw0/espalier"
	httpAdapter "github.com/aretw0/espalier/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves resolved catalogs, validation reports and metrics over HTTP.
With --watch, the cache is dropped whenever a profile in the repository changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Serve.Port, _ = cmd.Flags().GetInt("port")
		}
		watch, _ := cmd.Flags().GetBool("watch")

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		r, err := openResolver(cfg, espalier.WithMetrics(reg))
		if err != nil {
			return fmt.Errorf("error initializing espalier: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch {
			if err := invalidateOnChange(ctx, r); err != nil {
				return err
			}
		}

		srv := &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Serve.Port),
			Handler:           httpAdapter.NewHandler(r, httpAdapter.WithGatherer(reg), httpAdapter.WithLogger(slog.Default())),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Starting Espalier Server on %s\n", srv.Addr)
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving profiles from: %s\n", cfg.Dir)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "\nStart shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				if closeErr := srv.Close(); closeErr != nil {
					return errors.Join(err, closeErr)
				}
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Espalier Server stopped gracefully")
			return nil
		}
	},
}

// invalidateOnChange drops cached catalogs whenever the repository reports a change.
func invalidateOnChange(ctx context.Context, r *espalier.Resolver) error {
	changes, err := r.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for id := range changes {
			slog.Info("profile changed, invalidating cache", "profile", id)
			if err := r.Invalidate(ctx); err != nil {
				slog.Error("cache invalidation failed", "err", err)
			}
		}
	}()
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Bool("watch", false, "Invalidate the cache when profiles change")
}
