// Package main is the entry point for the Ward Pulse worker.
//
// The worker owns the background side of the system: the weekly scoring
// run (Monday night IST by default), scoreboard cache warming, and old
// score cleanup. It shares the persistence layer with the API server but
// exposes no HTTP surface of its own.
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
	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/external/postal"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/messaging"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/persistence/postgres"
	rediscache "github.com/neta-watch/ward-pulse/internal/infrastructure/persistence/redis"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/scheduler"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/scheduler/jobs"
	"github.com/neta-watch/ward-pulse/internal/infrastructure/service"
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
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Ward Pulse worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (the worker also keeps the schema current)
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
	// 4. REDIS
	// ─────────────────────────────────────────────────────────────────────────
	var cache *rediscache.Cache
	var scoreboardCache *rediscache.ScoreboardCache

	if !cfg.Redis.Disabled {
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
	// 5. REPOSITORIES & EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	pollResponseRepo := postgres.NewPollResponseRepo(dbConn)
	alertRepo := postgres.NewAlertRepo(dbConn)
	dailyPollRepo := postgres.NewDailyPollRepo(dbConn)
	wardScoreRepo := postgres.NewWardScoreRepo(dbConn)
	pincodeRepo := postgres.NewPincodeRepo(dbConn)

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
	// 6. PINCODE DIRECTORY
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
	// 7. SCHEDULER & JOBS
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled, worker will idle")
		waitForSignal(log)
		return nil
	}

	computeHandler := command.NewComputeWeeklyScoresHandler(
		pollResponseRepo, alertRepo, dailyPollRepo, directory, wardScoreRepo, eventBus, log)

	sched := scheduler.New(scheduler.Config{Logger: log})

	scoringCron, err := scheduler.ParseCron(cfg.Scheduler.ScoringCron)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULER_SCORING_CRON %q: %w", cfg.Scheduler.ScoringCron, err)
	}
	scoringJob := jobs.NewComputeWardScoresJob(computeHandler, log, cfg.Scoring.Timeout)
	if err := sched.Register(scoringJob, scoringCron); err != nil {
		return fmt.Errorf("failed to register scoring job: %w", err)
	}

	if scoreboardCache != nil && cfg.Features.IsEnabled(config.FeatureScoringCacheWarm) {
		warmJob := jobs.NewWarmScoreboardCacheJob(wardScoreRepo, scoreboardCache, cfg.Redis.ScoreboardTTL, log)
		if err := sched.Register(warmJob, scheduler.NewIntervalSchedule(cfg.Scheduler.CacheWarmInterval)); err != nil {
			return fmt.Errorf("failed to register cache warm job: %w", err)
		}
	}

	cleanupJob := jobs.NewCleanupOldScoresJob(wardScoreRepo, cfg.Scoring.Retention, log)
	if err := sched.Register(cleanupJob, scheduler.NewIntervalSchedule(cfg.Scheduler.CleanupInterval)); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("Ward Pulse worker is running",
		logger.String("scoring_cron", cfg.Scheduler.ScoringCron),
		logger.Int("jobs", len(sched.ListJobs())))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	waitForSignal(log)

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	log.Info("shutdown completed")
	return nil
}

func waitForSignal(log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-sigCh
	log.Info("received shutdown signal", logger.String("signal", sig.String()))
}

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
