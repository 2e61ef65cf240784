package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/config"
	"github.com/sells-group/relay-cli/internal/metrics"
)

var (
	cfg         *config.Config
	stopMetrics context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "relay-cli",
	Short: "Relay-point placement engine",
	Long:  "Clusters weighted demand inside a region boundary onto K relay points snapped to real cities, then publishes or saves them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.Metrics.Enabled {
			startMetrics(cmd.Context(), cfg.Metrics.Addr)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopMetrics != nil {
			stopMetrics()
			stopMetrics = nil
		}
		_ = zap.L().Sync()
	},
}

func startMetrics(parent context.Context, addr string) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	stopMetrics = cancel
	go func() {
		if err := metrics.Serve(ctx, addr); err != nil {
			zap.L().Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
