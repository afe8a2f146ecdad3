package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/wire"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var (
		addr        string
		noScheduler bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cron endpoints and run the in-process scheduler",
		Long: `Start the HTTP API (cron endpoints, health, current state, metrics)
and the weekly and daily schedules. Stops gracefully on SIGINT or SIGTERM.

Use --no-scheduler when an external cron calls /api/cron/weekly and
/api/cron/daily instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			logger := wire.Logger()
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if cfg.Server.CronSecret == "" {
				logger.Warn("no cron secret configured; cron endpoints will reject every request")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := wire.Server()

			sched, err := wire.Scheduler()
			if err != nil {
				return err
			}
			if !noScheduler {
				sched.Start()
				for _, e := range sched.Entries() {
					logger.Info("job scheduled", "job", e.Name, "next", e.Next)
				}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe(addr)
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
			case <-ctx.Done():
				logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http shutdown failed", "error", err)
			}
			if !noScheduler {
				if err := sched.Stop(shutdownCtx); err != nil {
					logger.Error("scheduler stop timed out", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve HTTP only")
	return cmd
}
