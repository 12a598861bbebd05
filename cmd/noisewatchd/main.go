package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quiet-rooms/noisewatch/internal/analytics"
	"github.com/quiet-rooms/noisewatch/internal/api"
	"github.com/quiet-rooms/noisewatch/internal/api/alerts"
	"github.com/quiet-rooms/noisewatch/internal/api/health"
	"github.com/quiet-rooms/noisewatch/internal/metrics"
	"github.com/quiet-rooms/noisewatch/internal/monitor"
	"github.com/quiet-rooms/noisewatch/internal/notifier"
	"github.com/quiet-rooms/noisewatch/internal/storage"
	"github.com/quiet-rooms/noisewatch/internal/view"
	"github.com/quiet-rooms/noisewatch/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "noisewatchd",
	Short: "NoiseWatch Server - Noise monitoring analytics and alerting",
	Long: `NoiseWatch Server ingests sound-level samples from room sensors,
watches the chosen room against its alert threshold, and serves daily
and weekly noise summaries over a REST + SSE API.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("noisewatchd %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// Local overrides from .env, if present
	_ = godotenv.Load()

	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags and environment
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	if url := os.Getenv("NOISEWATCH_WEBHOOK_URL"); url != "" {
		cfg.Notifier.WebhookURL = url
	}
	cfg.Verbose = verbose

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Seed a chosen location on first run
	if err := store.EnsureDefaultLocation(); err != nil {
		return fmt.Errorf("ensure default location: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	// Alert monitor with persisted reset date
	mon := monitor.New(store.MonitorState(), monitor.Options{
		Cooldown: cfg.Monitor.Cooldown,
	})
	defer mon.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mon.Restore(ctx); err != nil {
		return fmt.Errorf("restore monitor state: %w", err)
	}

	// Notifier channels
	dispatcher := notifier.NewDispatcherWithRateLimit(notifier.RateLimitConfig{
		PerMinute: cfg.Notifier.RatePerMinute,
		Enabled:   true,
	})
	defer dispatcher.Close()
	dispatcher.Register(notifier.NewLogNotifier())
	if cfg.Notifier.WebhookURL != "" {
		webhook, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{URL: cfg.Notifier.WebhookURL})
		if err != nil {
			return fmt.Errorf("configure webhook notifier: %w", err)
		}
		dispatcher.Register(webhook)
	}

	// View coordinator watching the chosen room
	chosen, err := store.Locations().Chosen(ctx)
	if err != nil {
		return fmt.Errorf("load chosen location: %w", err)
	}
	room := ""
	if chosen != nil {
		room = chosen.Name
	}
	engine := analytics.NewEngine(nil)
	coordinator := view.New(engine, store.Samples(), room, nil)

	// SSE event hub fed by the poll loop
	hub := alerts.NewHub()

	// HTTP API
	apiServer, err := api.New(&api.Config{
		Address:     cfg.Server.Address,
		CORSOrigins: cfg.Server.CORSOrigins,
		Verbose:     cfg.Verbose,
	}, store, mon, coordinator, hub)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}
	apiServer.RegisterHealthChecker(health.NewSQLiteChecker(store.DB()))

	// Poll loop feeding the monitor and the hub
	poller := monitor.NewPoller(store.Locations(), store.Samples(), mon, hub, monitor.PollerConfig{
		PollInterval:  cfg.Monitor.PollInterval,
		ResetInterval: cfg.Monitor.ResetInterval,
		Verbose:       cfg.Verbose,
	})
	apiServer.RegisterHealthChecker(health.NewFuncChecker("poller", func(ctx context.Context) error {
		last := poller.LastTick()
		if last.IsZero() {
			// Loop has not run yet; readiness should not flap during startup.
			return nil
		}
		if stale := time.Since(last); stale > 5*cfg.Monitor.PollInterval {
			return fmt.Errorf("poll loop stale for %v", stale.Truncate(time.Second))
		}
		return nil
	}))

	// Retention sweeper
	sweeper := storage.NewSweeper(store.Samples(), cfg.Retention.MaxAge, cfg.Retention.SweepInterval)

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting noisewatchd %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return apiServer.Run(gctx)
	})

	g.Go(func() error {
		return poller.Run(gctx)
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	// Fired alerts fan out to notifier channels and live stream subscribers.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case alert, ok := <-mon.Alerts():
				if !ok {
					return nil
				}
				hub.PublishAlert(alert)

				dispatchCtx, dispatchCancel := context.WithTimeout(gctx, 30*time.Second)
				if err := dispatcher.Dispatch(dispatchCtx, alert); err != nil {
					log.Printf("dispatch alert: %v", err)
				}
				dispatchCancel()
			}
		}
	})

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Address)
		g.Go(func() error {
			return metricsServer.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
