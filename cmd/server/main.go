package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clientpulse/clientpulse-backend-go/internal/api"
	"github.com/clientpulse/clientpulse-backend-go/internal/cache"
	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/metrics"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/scoring"
	"github.com/clientpulse/clientpulse-backend-go/internal/database"
	"github.com/clientpulse/clientpulse-backend-go/internal/datafetch"
	"github.com/clientpulse/clientpulse-backend-go/internal/scheduler"

	hubspotadapter "github.com/clientpulse/clientpulse-backend-go/internal/adapters/hubspot"
	stripeadapter "github.com/clientpulse/clientpulse-backend-go/internal/adapters/stripe"
	supabaseadapter "github.com/clientpulse/clientpulse-backend-go/internal/adapters/supabase"
	"github.com/clientpulse/clientpulse-backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level)

	// Initialize database
	db, err := database.Initialize(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer db.Close()

	// Run migrations
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal("Failed to run migrations: ", err)
		}
	}

	// Create repositories
	repos := database.NewRepositories(db)

	// Metrics
	collector := metrics.Collector(metrics.Noop{})
	if cfg.Monitoring.MetricsEnabled {
		collector = metrics.NewPrometheusCollector(&metrics.Config{
			Enabled: true,
			Prefix:  cfg.Monitoring.MetricsPrefix,
		})
	}

	// Scoring ruleset: optional YAML overrides on top of the defaults
	ruleset := scoring.DefaultRuleset()
	if cfg.Scoring.RulesetPath != "" {
		ruleset, err = scoring.LoadRuleset(cfg.Scoring.RulesetPath)
		if err != nil {
			log.Fatal("Failed to load scoring ruleset: ", err)
		}
		log.WithField("path", cfg.Scoring.RulesetPath).Info("Loaded scoring ruleset overrides")
	}

	scorer := scoring.NewService(ruleset, collector, log)
	if cfg.Scoring.PortfolioWorkers > 0 {
		scorer.SetWorkers(cfg.Scoring.PortfolioWorkers)
	}

	// Snapshot cache (optional)
	var snapshots *cache.SnapshotCache
	if cfg.Redis.Enabled {
		snapshots, err = cache.NewSnapshotCache(cfg.Redis, collector, log)
		if err != nil {
			log.WithError(err).Warn("Snapshot cache unavailable, fetches will always hit upstream sources")
			snapshots = nil
		} else {
			defer snapshots.Close()
		}
	}

	// Upstream sources and the refresh pipeline. All three integrations
	// must be configured; without them the API serves persisted data
	// only.
	var refresher *scheduler.Refresher
	if cfg.Integrations.Stripe.Enabled && cfg.Integrations.HubSpot.Enabled && cfg.Integrations.Supabase.Enabled {
		billing, err := stripeadapter.NewClient(cfg.Integrations.Stripe)
		if err != nil {
			log.Fatal("Failed to initialize Stripe client: ", err)
		}
		crm, err := hubspotadapter.NewClient(cfg.Integrations.HubSpot)
		if err != nil {
			log.Fatal("Failed to initialize HubSpot client: ", err)
		}
		usage, err := supabaseadapter.NewClient(cfg.Integrations.Supabase, log)
		if err != nil {
			log.Fatal("Failed to initialize Supabase client: ", err)
		}

		fetcher := datafetch.NewService(usage, billing, crm, snapshots, collector, log)
		refresher = scheduler.NewRefresher(fetcher, scorer, repos, log)

		if cfg.Sync.Enabled {
			if err := refresher.Start(cfg.Sync.Schedule); err != nil {
				log.Fatal("Failed to start portfolio refresh: ", err)
			}
		}
	} else {
		log.Warn("One or more integrations disabled, running in read-only mode")
	}

	// Initialize router
	router := api.NewRouter(cfg, repos, scorer, refresher, collector, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Infof("Starting ClientPulse backend on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if refresher != nil {
		log.Info("Stopping portfolio refresh...")
		refresher.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Info("Server exited")
}
