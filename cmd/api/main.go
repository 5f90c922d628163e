// Package main is the entrypoint for the SubTrackr API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/subtrackr/subtrackr/internal/app"
	"github.com/subtrackr/subtrackr/internal/cache"
	"github.com/subtrackr/subtrackr/internal/config"
	"github.com/subtrackr/subtrackr/internal/handler"
	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/middleware"
	"github.com/subtrackr/subtrackr/internal/notify"
	"github.com/subtrackr/subtrackr/internal/repository"
	"github.com/subtrackr/subtrackr/internal/server"
	"github.com/subtrackr/subtrackr/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stdout)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}
	clock := service.Clock{Location: loc}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", app.SanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", app.RedactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", app.SanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", app.RedactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.MustNewPrometheus(registry)
	httpMetrics := metrics.MustNewHTTP(registry)

	// Initialize services
	sender := app.NewSender(cfg, logger)
	scanner := notify.NewScanner(repo, repo, sender, logger, recorder, app.ScannerConfig(cfg))

	subscriptionService := service.NewSubscriptionService(repo, cacheClient, clock, logger, recorder)
	cardService := service.NewCardService(repo, recorder)
	preferenceService := service.NewPreferenceService(repo, recorder)
	dashboardService := service.NewDashboardService(repo, cacheClient, clock, cfg.SummaryCacheTTL, logger, recorder)

	// Initialize handlers
	handlers := server.Handlers{
		Root:          handler.New(),
		Health:        handler.NewHealthHandler(repo, cacheClient),
		Metrics:       handler.NewMetricsHandler(registry),
		Cron:          handler.NewCronHandler(scanner, cacheClient, clock, logger),
		Dashboard:     handler.NewDashboardHandler(dashboardService, logger),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionService, logger),
		Cards:         handler.NewCardHandler(cardService, logger),
		Preferences:   handler.NewPreferenceHandler(preferenceService, logger),
		Occurrences:   handler.NewOccurrenceHandler(clock, logger),
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	r := server.NewRouter(handlers, server.RouterConfig{
		Logger:        logger,
		CronSecret:    cfg.CronSecret,
		IsDevelopment: cfg.IsDevelopment(),
		CORS:          corsCfg,
		RateLimit: middleware.RateLimitConfig{
			Logger:        logger,
			Limiter:       cacheClient,
			Enabled:       cfg.RateLimitEnabled,
			APIPerMinute:  cfg.APIRatePerMinute,
			APIBurst:      cfg.APIRateBurst,
			CronPerSecond: cfg.CronRatePerSecond,
			CronBurst:     cfg.CronRateBurst,
		},
		HTTPMetrics: httpMetrics,
	})

	// Create and run server
	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"app_url", cfg.AppURL,
		"env", cfg.AppEnv,
		"timezone", loc.String(),
		"email_provider", cfg.EmailProvider,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
