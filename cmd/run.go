package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"apartment-watcher/scheduler"
)

// shutdownGrace bounds how long a stop waits for an in-flight cycle.
const shutdownGrace = 2 * time.Minute

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check now, then keep checking on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("=== Apartment watcher starting ===")
	a.logger.Info("Config: interval %dh | filter %v | recipients %d", cfg.IntervalHours, cfg.LocationFilter, len(cfg.ChatIDs))

	if cfg.MetricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, cfg.MetricsAddr, a.logger); err != nil {
				a.logger.Error("Metrics server stopped: %v", err)
			}
		}()
	}

	sched, err := scheduler.New(cfg.CronSpec(), a.loc, func(ctx context.Context) {
		_, _ = a.cycle.Run(ctx)
	}, a.logger)
	if err != nil {
		return err
	}

	sched.Start(true)
	<-ctx.Done()

	a.logger.Info("Shutting down, waiting for the current check to finish...")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Stopped")
	return nil
}
