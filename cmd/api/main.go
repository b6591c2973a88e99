package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"washpricing_backend/internal/audit"
	"washpricing_backend/internal/email"
	"washpricing_backend/internal/events"
	apphttp "washpricing_backend/internal/http"
	"washpricing_backend/internal/http/router"
	"washpricing_backend/internal/leads"
	"washpricing_backend/internal/pricing"
	"washpricing_backend/internal/quotes"
	"washpricing_backend/internal/scheduler"
	"washpricing_backend/internal/settings"
	"washpricing_backend/migrations"
	"washpricing_backend/platform/cache"
	"washpricing_backend/platform/config"
	"washpricing_backend/platform/db"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	settingsCache := initCache(ctx, cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	settingsModule := settings.NewModule(pool, settingsCache, cfg.GetSettingsCacheTTL(), val, log, eventBus)
	pricingModule := pricing.NewModule(pool, settingsModule.Resolver(), eventBus, val, log)
	quotesModule := quotes.NewModule(pool, pricingModule.Repository(), settingsModule.Resolver(), eventBus, val, log)
	leadsModule := leads.NewModule(pool, quotesModule.Service(), eventBus, val, log)

	// Audit trail subscribes to domain events (not HTTP-facing)
	auditRecorder := audit.NewRecorder(audit.New(pool), log)
	auditRecorder.Subscribe(eventBus)

	// Quote emails subscribe to quote.sent events
	emailNotifier := email.NewNotifier(initEmailSender(cfg, log), log)
	emailNotifier.Subscribe(eventBus)

	// Periodic quote expiry sweeps via asynq when Redis is configured
	sweepClient, closeSweep := initSweepScheduler(cfg, log)
	if closeSweep != nil {
		defer closeSweep()
	}
	if sweepClient != nil {
		go sweepClient.RunPeriodicSweep(ctx, cfg.GetQuoteExpirySweepInterval(), log)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			settingsModule,
			pricingModule,
			quotesModule,
			leadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) cache.Cache {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; settings cache disabled")
		return cache.NewNoop()
	}

	redisCache, err := cache.NewRedis(ctx, cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to connect to redis; settings cache disabled", "error", err)
		return cache.NewNoop()
	}

	log.Info("settings cache connected")
	return redisCache
}

func initEmailSender(cfg config.EmailConfig, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() {
		log.Info("email delivery disabled")
		return email.NoopSender{}
	}

	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func initSweepScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; quote expiry sweeps disabled")
		return nil, nil
	}

	sweepClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize expiry sweep client", "error", err)
		return nil, nil
	}

	return sweepClient, func() {
		_ = sweepClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
