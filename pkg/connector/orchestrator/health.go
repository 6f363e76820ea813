package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// revalidator periodically re-runs a connector's health check after
// initialization. It exists so a connector that started degraded, or
// degraded later, recovers without waiting for the next retrieval.
type revalidator struct {
	name     string
	interval time.Duration
	check    func(ctx context.Context) error
	logger   *zap.Logger

	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	checkCount   atomic.Int64
	failureCount atomic.Int64
}

func newRevalidator(name string, interval time.Duration, logger *zap.Logger, check func(ctx context.Context) error) *revalidator {
	return &revalidator{
		name:     name,
		interval: interval,
		check:    check,
		logger:   logger.With(zap.String("component", "revalidator")),
		stopCh:   make(chan struct{}),
	}
}

// Start begins periodic checks. The first check runs one interval after
// Start; initialization already validated once.
func (r *revalidator) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.perform(ctx)
			}
		}
	}()
}

// Stop halts periodic checks and waits for the runner to exit
func (r *revalidator) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *revalidator) perform(ctx context.Context) {
	r.checkCount.Add(1)

	if err := r.check(ctx); err != nil {
		r.failureCount.Add(1)
		r.logger.Warn("periodic validation failed",
			zap.Error(err),
			zap.Int64("failures", r.failureCount.Load()))
		return
	}

	r.logger.Debug("periodic validation passed",
		zap.Int64("checks", r.checkCount.Load()))
}

// CheckCount returns the number of periodic checks performed
func (r *revalidator) CheckCount() int64 {
	return r.checkCount.Load()
}

// FailureCount returns the number of failed periodic checks
func (r *revalidator) FailureCount() int64 {
	return r.failureCount.Load()
}
