// Package orchestrator implements the connector lifecycle and the retrieval
// algorithm shared by all backend bindings. A Connector composes a
// ConnectionProvider, a QueryBuilder and a ResultMapper behind the
// core.DataConnector surface; backend bindings are configuration of this
// type, not subtypes of it.
//
// All connector state after initialization is read-only apart from the
// lifecycle state word and the validation record, so a single instance is
// safe for concurrent callers: every retrieval uses a freshly built query
// and a freshly leased connection.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/logger"
	"github.com/attrflow/attrflow/pkg/metrics"
)

// Connector orchestrates a single backend binding. C is the leased
// connection type, R the raw result type of the backend.
type Connector[C any, R any] struct {
	cfg *config.ConnectorConfig

	provider  core.ConnectionProvider[C]
	builder   core.QueryBuilder[C, R]
	mapper    core.ResultMapper[R]
	validator core.Validator

	logger *zap.Logger
	tracer trace.Tracer

	state    atomic.Int32
	degraded atomic.Bool

	// validation record: most recent health-check outcome
	validationMu  sync.Mutex
	lastValidated time.Time
	lastValidErr  error

	revalidator *revalidator
	lifecycleMu sync.Mutex
}

// New creates a connector from its configuration and bound strategies. Any
// strategy may be nil at construction; Initialize rejects missing required
// bindings with a config error. A nil validator means validation trivially
// succeeds.
func New[C any, R any](
	cfg *config.ConnectorConfig,
	provider core.ConnectionProvider[C],
	builder core.QueryBuilder[C, R],
	mapper core.ResultMapper[R],
	validator core.Validator,
) *Connector[C, R] {
	c := &Connector[C, R]{
		cfg:       cfg,
		provider:  provider,
		builder:   builder,
		mapper:    mapper,
		validator: validator,
		logger:    logger.Get().With(zap.String("connector", cfg.ID), zap.String("backend", cfg.Backend)),
		tracer:    noop.NewTracerProvider().Tracer("attrflow"),
	}
	c.state.Store(int32(core.StateUninitialized))
	return c
}

// SetTracer installs a tracer for per-retrieval spans. Must be called
// before Initialize.
func (c *Connector[C, R]) SetTracer(tracer trace.Tracer) {
	c.tracer = tracer
}

// ID returns the connector instance identifier
func (c *Connector[C, R]) ID() string {
	return c.cfg.ID
}

// Backend returns the backend binding name
func (c *Connector[C, R]) Backend() string {
	return c.cfg.Backend
}

// State returns the current lifecycle state
func (c *Connector[C, R]) State() core.LifecycleState {
	return core.LifecycleState(c.state.Load())
}

// Config returns the connector configuration
func (c *Connector[C, R]) Config() *config.ConnectorConfig {
	return c.cfg
}

// Initialize moves the connector from Uninitialized to Ready. It requires
// the provider, builder and mapper to be bound, freezes the configuration,
// initializes the provider and runs the validator. A validation failure is
// fatal only under the fail-fast policy; otherwise the connector starts
// degraded and revalidates on first use.
func (c *Connector[C, R]) Initialize(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.state.CompareAndSwap(int32(core.StateUninitialized), int32(core.StateInitializing)) {
		return errors.Newf(errors.ErrorTypeState,
			"connector %q cannot initialize from state %s", c.cfg.ID, c.State())
	}

	if err := c.checkBindings(); err != nil {
		c.state.Store(int32(core.StateUninitialized))
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		c.state.Store(int32(core.StateUninitialized))
		return err
	}
	c.cfg.Freeze()

	if err := c.provider.Init(ctx); err != nil {
		c.state.Store(int32(core.StateUninitialized))
		return errors.Wrap(err, errors.ErrorTypeConfig,
			"failed to initialize connection provider")
	}

	if err := c.runValidator(ctx); err != nil {
		if c.cfg.Policy.FailFastInitialize {
			c.state.Store(int32(core.StateFailed))
			c.destroyProvider()
			c.logger.Error("fail-fast validation failed, connector unusable", zap.Error(err))
			return errors.Wrap(err, errors.ErrorTypeConfig,
				"fail-fast validation failed during initialization")
		}

		c.degraded.Store(true)
		c.logger.Warn("validation failed, starting degraded; will revalidate on first use",
			zap.Error(err))
	}

	c.state.Store(int32(core.StateReady))

	if interval := c.cfg.Observability.RevalidateInterval; interval > 0 {
		c.revalidator = newRevalidator(c.cfg.ID, interval, c.logger, c.Validate)
		c.revalidator.Start(ctx)
	}

	c.logger.Info("connector initialized",
		zap.Bool("degraded", c.degraded.Load()),
		zap.Bool("fail_fast", c.cfg.Policy.FailFastInitialize),
		zap.Bool("no_result_is_error", c.cfg.Policy.NoResultIsError))

	return nil
}

// checkBindings verifies the required strategies are bound
func (c *Connector[C, R]) checkBindings() error {
	if c.provider == nil {
		return errors.Newf(errors.ErrorTypeConfig,
			"connector %q has no connection provider bound", c.cfg.ID)
	}
	if c.builder == nil {
		return errors.Newf(errors.ErrorTypeConfig,
			"connector %q has no query builder bound", c.cfg.ID)
	}
	if c.mapper == nil {
		return errors.Newf(errors.ErrorTypeConfig,
			"connector %q has no result mapper bound", c.cfg.ID)
	}
	return nil
}

// Validate re-runs the connector health check. Callable while Ready, for
// example from a periodic health-check collaborator.
func (c *Connector[C, R]) Validate(ctx context.Context) error {
	switch c.State() {
	case core.StateReady, core.StateInitializing:
	default:
		return errors.Newf(errors.ErrorTypeState,
			"connector %q cannot validate in state %s", c.cfg.ID, c.State())
	}
	return c.runValidator(ctx)
}

// runValidator executes the validator under the configured deadline and
// records the outcome.
func (c *Connector[C, R]) runValidator(ctx context.Context) error {
	var err error
	if c.validator != nil {
		checkCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.Validate)
		defer cancel()
		err = c.validator.Validate(checkCtx)
	}

	c.validationMu.Lock()
	c.lastValidated = time.Now()
	if err != nil {
		err = errors.Wrap(err, errors.ErrorTypeValidation, "connector validation failed")
	}
	c.lastValidErr = err
	c.validationMu.Unlock()

	if err != nil {
		metrics.ValidationFailures.WithLabelValues(c.cfg.ID, c.cfg.Backend).Inc()
		return err
	}
	return nil
}

// LastValidation returns the time and outcome of the most recent health
// check. The zero time means no check has run.
func (c *Connector[C, R]) LastValidation() (time.Time, error) {
	c.validationMu.Lock()
	defer c.validationMu.Unlock()
	return c.lastValidated, c.lastValidErr
}

// Resolve retrieves attributes for the resolution context. Valid only in
// Ready. Errors from each stage propagate unchanged in kind; the only
// suppressed failures are connection releases, which the provider logs.
func (c *Connector[C, R]) Resolve(ctx context.Context, rc *core.ResolutionContext) (attribute.Map, error) {
	if c.State() != core.StateReady {
		return nil, errors.Newf(errors.ErrorTypeState,
			"connector %q is not ready (state %s)", c.cfg.ID, c.State())
	}

	// Degraded start: re-attempt validation on use until it succeeds
	if c.degraded.Load() {
		if err := c.runValidator(ctx); err != nil {
			return nil, err
		}
		c.degraded.Store(false)
		c.logger.Info("deferred validation succeeded, leaving degraded state")
	}

	timer := metrics.NewTimer()
	log := c.logger.With(zap.String("request_id", rc.RequestID()))

	var span trace.Span
	if c.cfg.Observability.EnableTracing {
		ctx, span = c.tracer.Start(ctx, "connector.resolve",
			trace.WithAttributes(
				otelattr.String("connector.id", c.cfg.ID),
				otelattr.String("connector.backend", c.cfg.Backend)))
		defer span.End()
	}

	result, err := c.retrieve(ctx, rc, span, log)

	status := "success"
	if err != nil {
		status = string(errors.TypeOf(err))
	} else if result.IsEmpty() {
		status = "empty"
	}
	if c.cfg.Observability.EnableMetrics {
		metrics.ObserveResolution(c.cfg.ID, c.cfg.Backend, status, timer.Stop())
		stats := c.provider.Stats()
		metrics.PoolConnections.WithLabelValues(c.cfg.ID, "active").Set(float64(stats.Active))
		metrics.PoolConnections.WithLabelValues(c.cfg.ID, "idle").Set(float64(stats.Idle))
	}

	if err != nil {
		log.Debug("retrieval failed", zap.String("status", status), zap.Error(err))
		return nil, err
	}

	log.Debug("retrieval complete",
		zap.Int("attributes", len(result)),
		zap.Duration("elapsed", timer.Stop()))
	return result, nil
}

// retrieve runs the shared algorithm: build, acquire, execute, map, apply
// the no-result policy.
func (c *Connector[C, R]) retrieve(ctx context.Context, rc *core.ResolutionContext, span trace.Span, log *zap.Logger) (attribute.Map, error) {
	query, err := c.builder.Build(rc)
	if err != nil {
		return nil, err
	}
	if span != nil {
		span.SetAttributes(otelattr.String("query.cache_key", query.CacheKey()))
		span.AddEvent("query built")
	}

	conn, err := c.provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	// Release exactly once per successful acquisition, on every exit path
	defer c.provider.Release(conn)
	if span != nil {
		span.AddEvent("connection acquired")
	}

	execCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.Query)
	defer cancel()

	raw, err := query.Execute(execCtx, conn)
	if err != nil {
		return nil, err
	}
	if span != nil {
		span.AddEvent("query executed")
	}

	result, err := c.mapper.Map(raw)
	if err != nil {
		return nil, err
	}

	if result.IsEmpty() {
		if c.cfg.Policy.NoResultIsError {
			return nil, errors.Newf(errors.ErrorTypeNoResult,
				"no attributes resolved by connector %q", c.cfg.ID).
				WithDetail("cache_key", query.CacheKey())
		}
		log.Debug("no results, returning empty attribute map",
			zap.String("cache_key", query.CacheKey()))
		return attribute.NewMap(), nil
	}

	return result, nil
}

// Destroy releases backend-wide resources. Further retrievals fail with a
// state error. Idempotent; a Failed connector stays Failed.
func (c *Connector[C, R]) Destroy(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	switch c.State() {
	case core.StateDestroyed, core.StateFailed:
		return nil
	}

	if c.revalidator != nil {
		c.revalidator.Stop()
	}

	c.destroyProvider()
	c.state.Store(int32(core.StateDestroyed))
	c.logger.Info("connector destroyed")
	return nil
}

// destroyProvider closes the provider; release failures during cleanup are
// logged and swallowed so they never mask a primary result.
func (c *Connector[C, R]) destroyProvider() {
	if c.provider == nil {
		return
	}
	if err := c.provider.Destroy(); err != nil {
		c.logger.Error("failed to destroy connection provider", zap.Error(err))
	}
}

// PoolStats reports the provider's pool utilization
func (c *Connector[C, R]) PoolStats() core.PoolStats {
	if c.provider == nil {
		return core.PoolStats{}
	}
	return c.provider.Stats()
}
