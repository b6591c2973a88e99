package scheduler

import (
	"context"
	"fmt"

	"washpricing_backend/platform/config"
	"washpricing_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// QuoteExpirer is the slice of the quotes service the worker needs.
type QuoteExpirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// Worker consumes scheduler tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	quotes QuoteExpirer
	log    *logger.Logger
}

// NewWorker creates an asynq worker handling the quote expiry sweep.
func NewWorker(cfg config.SchedulerConfig, quotes QuoteExpirer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		quotes: quotes,
		log:    log,
	}

	mux.HandleFunc(TaskQuoteExpirySweep, w.handleQuoteExpirySweep)

	return w, nil
}

func (w *Worker) handleQuoteExpirySweep(ctx context.Context, _ *asynq.Task) error {
	count, err := w.quotes.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("quote expiry sweep: %w", err)
	}
	if count > 0 {
		w.log.Info("quote expiry sweep completed", "expired", count)
	}
	return nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
