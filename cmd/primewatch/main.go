// Command primewatch runs the factoring-database scheduling/throttling
// agent, or exposes its factor-expression parser as a standalone tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kavanlabs/primewatch/internal/algebraic"
	"github.com/kavanlabs/primewatch/internal/checker"
	"github.com/kavanlabs/primewatch/internal/config"
	"github.com/kavanlabs/primewatch/internal/cpubudget"
	"github.com/kavanlabs/primewatch/internal/dedup"
	"github.com/kavanlabs/primewatch/internal/discovery"
	"github.com/kavanlabs/primewatch/internal/httpclient"
	"github.com/kavanlabs/primewatch/internal/monitor"
	"github.com/kavanlabs/primewatch/internal/observability"
	"github.com/kavanlabs/primewatch/internal/queue"
	"github.com/kavanlabs/primewatch/internal/ratelimit"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "primewatch",
		Short: "primewatch — factoring-database discovery and PRP-checking agent",
		Long: `primewatch watches a remote number-factoring database for probable-prime
and unknown-status entries, rate-limits itself against the service's own
quota, and adaptively throttles CPU-heavy work using the service's
self-reported resource accounting.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(factorsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the discovery/checker agent until shutdown",
		RunE:  runAgent,
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting primewatch",
		"base_url", cfg.Service.BaseURL,
		"requests_per_hour", cfg.Limits.RequestsPerHour,
		"max_concurrent_requests", cfg.Limits.MaxConcurrentRequests,
	)

	var exitAt *time.Time
	if cfg.Limits.ExitTime != "" {
		t, err := time.Parse(time.RFC3339, cfg.Limits.ExitTime)
		if err != nil {
			return fmt.Errorf("parse limits.exit_time: %w", err)
		}
		exitAt = &t
	}

	limiter := ratelimit.New(cfg.Limits.RequestsPerHour, cfg.Limits.RateLimiterBurnIn, cfg.Limits.MaxConcurrentRequests, logger)
	client, err := httpclient.New(cfg.Service.BaseURL, cfg.Limits.MaxShortURLLen, limiter, exitAt, logger)
	if err != nil {
		return fmt.Errorf("create http client: %w", err)
	}

	queues := queue.NewPair(cfg.TaskBufferSize())
	filter := dedup.New(2500, 1e-3, time.Hour)
	cpu := cpubudget.New()
	shutdown, mon := monitor.New(cfg.Limits.StackTracesInterval, logger)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		metrics.StartServer(cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	disc := discovery.New(cfg, client, queues, cpu, shutdown, metrics, logger)
	chk := checker.New(client, queues, filter, cpu, shutdown, checker.Limits{
		BaseURL:                       cfg.Service.BaseURL,
		MaxCPUBudgetTenths:            cfg.Limits.MaxCPUBudgetTenths,
		MaxBasesBetweenResourceChecks: cfg.Limits.MaxBasesBetweenResourceChecks,
		UnknownStatusCheckBackoff:     cfg.Limits.UnknownStatusCheckBackoff,
		RetryDelay:                    cfg.Limits.RetryDelay,
		MaxRetries:                    cfg.Limits.MaxRetries,
	}, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { disc.Run(gctx); return nil })
	g.Go(func() error { chk.Run(gctx); return nil })

	monDone := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(monDone)
	}()
	_ = g.Wait()
	cancel()
	<-monDone

	logger.Info("primewatch shut down cleanly")
	return nil
}

func factorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "factors [expression]",
		Short: "Print the detected unique factors of a factor-database expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finder := algebraic.New()
			factors := finder.FindUniqueFactors(args[0])
			if len(factors) == 0 {
				fmt.Println("(no factors detected)")
				return nil
			}
			fmt.Println(strings.Join(factors, ", "))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("primewatch %s\n", config.Version)
		},
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
