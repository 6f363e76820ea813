// Package directory implements the LDAP backend binding: a pooled
// connection provider, a filter-template query builder, an entry mapper and
// a default validator, wired into the shared orchestrator.
package directory

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/logger"
	"github.com/attrflow/attrflow/pkg/metrics"
)

// PooledProvider leases bound LDAP connections from a bounded pool. Safe
// for concurrent use; waiting for a lease is bounded by the configured
// acquire timeout.
type PooledProvider struct {
	cfg    *config.ConnectorConfig
	logger *zap.Logger

	mu        sync.Mutex
	idle      []*ldap.Conn
	active    int
	destroyed bool

	// slots is the counting semaphore bounding open connections
	slots chan struct{}

	waits    atomic.Int64
	timeouts atomic.Int64
}

// NewPooledProvider creates a directory connection provider
func NewPooledProvider(cfg *config.ConnectorConfig) *PooledProvider {
	return &PooledProvider{
		cfg:    cfg,
		logger: logger.Get().With(zap.String("connector", cfg.ID), zap.String("component", "ldap_pool")),
	}
}

// Init sizes the pool and warms the configured minimum of idle connections.
// A failed warm-up connection is not fatal; connections are dialed on
// demand.
func (p *PooledProvider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.slots != nil {
		return nil
	}
	p.slots = make(chan struct{}, p.cfg.Pool.MaxOpen)
	for i := 0; i < p.cfg.Pool.MaxOpen; i++ {
		p.slots <- struct{}{}
	}

	for i := 0; i < p.cfg.Pool.MinIdle; i++ {
		conn, err := p.dial(ctx)
		if err != nil {
			p.logger.Warn("pool warm-up connection failed", zap.Error(err))
			break
		}
		p.idle = append(p.idle, conn)
	}

	return nil
}

// Acquire leases a connection, dialing when no idle one is available. Pool
// exhaustion past the acquire timeout is a connection error.
func (p *PooledProvider) Acquire(ctx context.Context) (*ldap.Conn, error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil, errors.Newf(errors.ErrorTypeConnection,
			"connection pool for connector %q is destroyed", p.cfg.ID)
	}
	slots := p.slots
	p.mu.Unlock()

	if slots == nil {
		return nil, errors.Newf(errors.ErrorTypeConnection,
			"connection pool for connector %q is not initialized", p.cfg.ID)
	}

	p.waits.Add(1)
	timer := time.NewTimer(p.cfg.Pool.AcquireTimeout)
	defer timer.Stop()

	select {
	case <-slots:
	case <-timer.C:
		p.timeouts.Add(1)
		metrics.PoolAcquireTimeouts.WithLabelValues(p.cfg.ID).Inc()
		return nil, errors.Newf(errors.ErrorTypeConnection,
			"connection pool for connector %q exhausted after %s",
			p.cfg.ID, p.cfg.Pool.AcquireTimeout)
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeConnection,
			"connection acquisition cancelled")
	}

	// Slot held from here; return it on every failure path
	p.mu.Lock()
	for len(p.idle) > 0 {
		conn := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if conn.IsClosing() {
			continue
		}
		p.active++
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := p.dial(ctx)
	if err != nil {
		slots <- struct{}{}
		return nil, err
	}

	p.mu.Lock()
	p.active++
	p.mu.Unlock()
	return conn, nil
}

// Release returns a lease to the pool. Idempotent for nil and closed
// connections; failures never propagate past this boundary.
func (p *PooledProvider) Release(conn *ldap.Conn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	if p.active > 0 {
		p.active--
	}
	if p.destroyed || conn.IsClosing() {
		p.mu.Unlock()
		p.closeConn(conn)
		p.returnSlot()
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
	p.returnSlot()
}

func (p *PooledProvider) returnSlot() {
	select {
	case p.slots <- struct{}{}:
	default:
	}
}

// Destroy closes all pooled connections. Idempotent.
func (p *PooledProvider) Destroy() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil
	}
	p.destroyed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, conn := range idle {
		p.closeConn(conn)
	}

	p.logger.Info("connection pool destroyed", zap.Int("closed", len(idle)))
	return nil
}

// Stats reports pool utilization
func (p *PooledProvider) Stats() core.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.PoolStats{
		Active:   p.active,
		Idle:     len(p.idle),
		Total:    p.active + len(p.idle),
		MaxSize:  p.cfg.Pool.MaxOpen,
		Waits:    p.waits.Load(),
		Timeouts: p.timeouts.Load(),
	}
}

// dial opens and binds a new directory connection
func (p *PooledProvider) dial(ctx context.Context) (*ldap.Conn, error) {
	opts := []ldap.DialOpt{}
	if p.cfg.Connection.EnableTLS {
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{
			InsecureSkipVerify: p.cfg.Connection.TLSSkipVerify, //nolint:gosec // G402: operator opt-in
		}))
	}

	conn, err := ldap.DialURL(p.cfg.Connection.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection,
			"failed to connect to directory").WithDetail("url", p.cfg.Connection.URL)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}

	bindDN := p.cfg.Connection.Credentials["bind_dn"]
	bindPassword := p.cfg.Connection.Credentials["bind_password"]
	if bindDN != "" {
		if err := conn.Bind(bindDN, bindPassword); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeConnection,
				"directory bind failed").WithDetail("bind_dn", bindDN)
		}
	}

	return conn, nil
}

func (p *PooledProvider) closeConn(conn *ldap.Conn) {
	// Cleanup failures are logged and swallowed so they never mask the
	// primary result of a call
	if err := conn.Close(); err != nil {
		p.logger.Warn("failed to close directory connection", zap.Error(err))
	}
}
