package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"washpricing_backend/internal/events"
	pricingrepo "washpricing_backend/internal/pricing/repository"
	quotesrepo "washpricing_backend/internal/quotes/repository"
	quotesservice "washpricing_backend/internal/quotes/service"
	"washpricing_backend/internal/scheduler"
	settingsrepo "washpricing_backend/internal/settings/repository"
	settingsservice "washpricing_backend/internal/settings/service"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Worker-side quote service wiring (no HTTP handlers required).
	resolver := settingsservice.NewResolver(settingsrepo.New(pool), cache.NewNoop(), val, log)
	quotesSvc := quotesservice.New(quotesrepo.New(pool), pricingrepo.New(pool), resolver, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, quotesSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
