// Package main is the entry point for the Ward Pulse API server.
//
// Ward Pulse turns raw civic signals (daily poll answers, area alerts,
// resolution confirmations) into a weekly ward scoreboard so residents can
// see how their neighbourhood is doing and compare it with the rest of the
// city.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure scoring and civic-signal logic without external dependencies
// - Application: use-case orchestration (Commands/Queries/Event handlers)
// - Infrastructure: Postgres/Redis repositories, postal directory client
// - Interface: HTTP API handlers
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/neta-watch/ward-pulse/config"
	"github.com/neta-watch/ward-pulse/internal/application/command"
	"github.com/neta-watch/ward-pulse/internal/application/eventhandler"
	"github.com/neta-watch/ward-pulse/internal/application/query"
	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/external/postal"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/messaging"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/persistence/postgres"
	rediscache "github.com/neta-watch/ward-pulse/internal/infrastructure/persistence/redis"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/service"
	httpserver "github.com/neta-watch/ward-pulse/internal/interface/http"
	"github.com/neta-watch/ward-pulse/internal/interface/http/handlers"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	// .env is optional; real deployments inject environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Ward Pulse API server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnection(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxOpenConns,
		MinConns:        cfg.Database.MinConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if cfg.Database.Migrate {
		log.Info("running database migrations")
		if err := postgres.RunMigrations(ctx, dbConn); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional cache layer)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *rediscache.Cache
	var scoreboardCache *rediscache.ScoreboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis", logger.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)))
		cache, err = rediscache.NewCache(rediscache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("Redis unavailable, caching disabled", logger.Err(err))
			cache = nil
		} else {
			defer cache.Close()
			scoreboardCache = rediscache.NewScoreboardCache(cache)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	pollResponseRepo := postgres.NewPollResponseRepo(dbConn)
	alertRepo := postgres.NewAlertRepo(dbConn)
	dailyPollRepo := postgres.NewDailyPollRepo(dbConn)
	wardScoreRepo := postgres.NewWardScoreRepo(dbConn)
	pincodeRepo := postgres.NewPincodeRepo(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() { _ = eventBus.Close() }()

	if scoreboardCache != nil {
		if err := eventBus.Subscribe(shared.EventScoresComputed,
			eventhandler.NewOnScoresComputed(scoreboardCache, log)); err != nil {
			return fmt.Errorf("failed to subscribe cache invalidator: %w", err)
		}
	}
	rankLogger := eventhandler.NewRankChangeLogger(log, 5)
	if err := eventBus.Subscribe(shared.EventWardRankChanged, rankLogger); err != nil {
		return fmt.Errorf("failed to subscribe rank change logger: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventWardEnteredTop, rankLogger); err != nil {
		return fmt.Errorf("failed to subscribe entered top logger: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. PINCODE DIRECTORY (local table → Redis → postal API)
	// ─────────────────────────────────────────────────────────────────────────
	var fallback geo.Directory
	if !cfg.Postal.Disabled {
		postalCfg := postal.DefaultClientConfig(cfg.Postal.BaseURL)
		postalCfg.Timeout = cfg.Postal.RequestTimeout
		postalCfg.RateLimiterConfig.RequestsPerSecond = cfg.Postal.RequestsPerSecond
		postalCfg.RateLimiterConfig.Burst = cfg.Postal.Burst
		postalCfg.RetryConfig.MaxAttempts = cfg.Postal.MaxRetries
		postalCfg.RetryConfig.InitialDelay = cfg.Postal.RetryBaseDelay
		postalCfg.RetryConfig.MaxDelay = cfg.Postal.RetryMaxDelay
		postalCfg.CircuitBreakerConfig.FailureThreshold = cfg.Postal.CircuitBreakerThreshold
		postalCfg.CircuitBreakerConfig.Timeout = cfg.Postal.CircuitBreakerTimeout
		postalCfg.Logger = log
		fallback = postal.NewClient(postalCfg)
	}
	directory := service.NewPincodeDirectory(pincodeRepo, fallback, cache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	computeHandler := command.NewComputeWeeklyScoresHandler(
		pollResponseRepo, alertRepo, dailyPollRepo, directory, wardScoreRepo, eventBus, log)
	recordHandler := command.NewRecordPollResponseHandler(
		dailyPollRepo, pollResponseRepo, eventBus, log)

	scoreboardHandler := query.NewGetScoreboardHandler(
		wardScoreRepo, nilIfNoCache(scoreboardCache), cfg.Redis.ScoreboardTTL, log)
	wardCardHandler := query.NewGetWardCardHandler(
		wardScoreRepo, nilIfNoCache(scoreboardCache), cfg.Redis.WardCardTTL, log)
	historyHandler := query.NewGetWardHistoryHandler(wardScoreRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	if cache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(cache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.IdleTimeout = cfg.Server.IdleTimeout
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	serverCfg.APIKeyHeader = cfg.Server.APIKeyHeader
	serverCfg.APIKeyHashes = cfg.Server.APIKeyHashes

	srv := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		ComputeScoresHandler:  computeHandler,
		RecordResponseHandler: recordHandler,
		GetScoreboardHandler:  scoreboardHandler,
		GetWardCardHandler:    wardCardHandler,
		GetWardHistoryHandler: historyHandler,
		Logger:                log,
		HealthChecker:         health,
	})

	errCh := srv.StartAsync()
	log.Info("Ward Pulse API server is running", logger.String("address", serverCfg.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("shutdown completed")
	return nil
}

// setupLogger builds the structured logger from observability config.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = parseLogLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

func parseLogLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

// nilIfNoCache keeps the query handlers' cache interface nil when Redis is
// down, instead of a typed-nil pointer that would fail the nil check.
func nilIfNoCache(c *rediscache.ScoreboardCache) scoring.ScoreboardCache {
	if c == nil {
		return nil
	}
	return c
}
