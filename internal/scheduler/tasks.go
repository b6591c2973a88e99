package scheduler

import (
	"github.com/hibiken/asynq"
)

// TaskQuoteExpirySweep transitions every sent quote past its validity
// window to expired. The sweep is idempotent, so overlapping enqueues are
// harmless.
const TaskQuoteExpirySweep = "quotes:expire"

// NewQuoteExpirySweepTask builds the sweep task. It carries no payload; the
// sweep always covers all organizations.
func NewQuoteExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskQuoteExpirySweep, nil)
}
