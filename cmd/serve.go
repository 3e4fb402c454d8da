package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matrixise/coinfolio/internal/api"
	"github.com/matrixise/coinfolio/internal/health"
	"github.com/matrixise/coinfolio/internal/scheduler"
)

var (
	serveInterval string
	servePort     int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and refresh prices on a schedule",
	Long: `Run the HTTP command surface. Prices are refreshed on the configured
interval (duration like 5m or a cron expression; empty disables the
scheduler) and shortly after every watchlist change. On the postgres backend
each scheduled refresh also records the portfolio valuation.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveInterval, "interval", "", "refresh interval - duration (5m, 1h) or cron (\"*/5 * * * *\"), overrides config")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port, overrides config")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if cmd.Flags().Changed("interval") {
		if err := scheduler.ValidateScheduleInterval(serveInterval); err != nil {
			return fmt.Errorf("invalid --interval: %w", err)
		}
		cfg.Interval = serveInterval
	}
	if servePort != 0 {
		cfg.HTTPPort = servePort
	}

	slog.Info("Configuration loaded",
		"config_path", cfgFile,
		"backend", cfg.Storage.Backend,
		"scope", cfg.Scope,
		"tokens", a.dash.State().Watchlist.Len(),
		"interval", cfg.Interval,
	)

	a.persister.Start()
	defer a.persister.Stop()

	stopAutoRefresh := a.dash.WatchAutoRefresh()
	defer stopAutoRefresh()

	var expected time.Duration
	if cfg.Interval != "" {
		expected = scheduler.ExpectedInterval(cfg.Interval)
	}
	checker := health.NewChecker(a.kv, expected, a.logger)

	var sched *scheduler.Scheduler
	if cfg.Interval != "" {
		sched, err = scheduler.NewScheduler(ctx, scheduler.Config{
			Name:           "refresh",
			Interval:       cfg.Interval,
			Timezone:       cfg.GetTimezone(),
			RunImmediately: cfg.ShouldRunImmediately(),
			Logger:         a.logger,
		}, func(jobCtx context.Context) error {
			err := a.refreshAndRecord(jobCtx)
			checker.UpdateLastRun(err)
			return err
		})
		if err != nil {
			slog.Error("Failed to create scheduler", "error", err)
			return fmt.Errorf("scheduler creation failed: %w", err)
		}
		slog.Info("Scheduled refresh enabled",
			"schedule", scheduler.DescribeSchedule(cfg.Interval, cfg.GetTimezone()),
			"run_immediately", cfg.ShouldRunImmediately())
	} else {
		slog.Info("Scheduled refresh disabled")
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.NewServer(a.dash, checker.Handler(), a.logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if sched != nil {
		if err := sched.Start(); err != nil {
			slog.Error("Failed to start scheduler", "error", err)
			stop()
			_ = g.Wait()
			return fmt.Errorf("scheduler start failed: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			return sched.Stop()
		})
	}

	err = g.Wait()
	slog.Info("Shutdown complete")
	return err
}
