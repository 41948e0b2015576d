package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Task is one unit of work dispatched to a pool worker: process the
// single batch at Index, owned exclusively by whichever worker claims it.
type Task struct {
	Index int
}

// pool drives a group of worker goroutines, each independently processing
// batches pulled from a shared channel. Structurally this follows the
// teacher's duty-cycle worker pool: fixed goroutine count, context-driven
// shutdown, no shared mutable state between workers. Each worker's batch
// processing is wrapped in its own circuit breaker: after repeated
// failures the breaker opens, and until its timeout elapses that worker
// rejects each batch it claims without processing it, leaving the batch's
// output unwritten for a later run.
type pool struct {
	workers int
	logger  *zap.Logger
}

// DefaultWorkers is the pool size used when the caller does not override it.
const DefaultWorkers = 6

func newPool(workers int, logger *zap.Logger) *pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &pool{workers: workers, logger: logger}
}

// run fans tasks out across the pool's workers, invoking process for each
// claimed Task until tasks is drained or ctx is cancelled. Already-running
// work is allowed to finish; run does not return until every worker has
// exited.
func (p *pool) run(ctx context.Context, tasks <-chan Task, process func(context.Context, Task) error) {
	done := make(chan struct{}, p.workers)

	for i := 0; i < p.workers; i++ {
		go p.worker(ctx, i, tasks, process, done)
	}

	for i := 0; i < p.workers; i++ {
		<-done
	}
}

func (p *pool) worker(ctx context.Context, id int, tasks <-chan Task, process func(context.Context, Task) error, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	breaker := newWorkerBreaker(fmt.Sprintf("batch-worker-%d", id), p.logger)

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}

			p.runTask(ctx, breaker, task, process)
		}
	}
}

func (p *pool) runTask(ctx context.Context, breaker *gobreaker.CircuitBreaker[struct{}], task Task, process func(context.Context, Task) error) {
	_, err := breaker.Execute(func() (result struct{}, execErr error) {
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("batch %04d: worker panic: %v", task.Index, r)
			}
		}()

		return struct{}{}, process(ctx, task)
	})

	if err != nil && p.logger != nil {
		p.logger.Error("batch task failed, leaving output unwritten for retry",
			zap.Int("batch", task.Index),
			zap.Error(err),
		)
	}
}

// newWorkerBreaker trips after five consecutive failures and probes again
// after a cooldown, the same circuit-breaker shape used to protect a
// flaky remote dependency — here applied to a worker whose batches keep
// failing or panicking.
func newWorkerBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker[struct{}] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	if logger != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn("worker circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}

	return gobreaker.NewCircuitBreaker[struct{}](settings)
}
