package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/logger"
)

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRevalidatorRunsPeriodically(t *testing.T) {
	var checks atomic.Int64
	r := newRevalidator("test-conn", 10*time.Millisecond, logger.Get(), func(ctx context.Context) error {
		checks.Add(1)
		return nil
	})

	r.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool { return checks.Load() >= 3 })
	r.Stop()

	settled := checks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, checks.Load())
	assert.Equal(t, int64(0), r.FailureCount())
}

func TestRevalidatorCountsFailures(t *testing.T) {
	r := newRevalidator("test-conn", 10*time.Millisecond, logger.Get(), func(ctx context.Context) error {
		return errors.New(errors.ErrorTypeValidation, "unreachable")
	})

	r.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool { return r.FailureCount() >= 2 })
	r.Stop()

	assert.Equal(t, r.CheckCount(), r.FailureCount())
}

func TestRevalidatorStopIdempotent(t *testing.T) {
	r := newRevalidator("test-conn", time.Hour, logger.Get(), func(ctx context.Context) error {
		return nil
	})
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}

func TestRevalidatorStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var checks atomic.Int64
	r := newRevalidator("test-conn", 10*time.Millisecond, logger.Get(), func(ctx context.Context) error {
		checks.Add(1)
		return nil
	})

	r.Start(ctx)
	waitFor(t, 2*time.Second, func() bool { return checks.Load() >= 1 })
	cancel()

	time.Sleep(30 * time.Millisecond)
	settled := checks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, checks.Load(), settled+1)
}
