// Package relational implements the SQL backend binding on database/sql: a
// DataSource-style connection provider, a parameterized statement builder,
// a row-set mapper and a ping validator, wired into the shared
// orchestrator. Drivers (MySQL, PostgreSQL via pgx) are registered by the
// embedding binary.
package relational

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/logger"
)

// DBProvider leases *sql.Conn handles from a database/sql pool. The pool
// itself guarantees thread-safe lease/return semantics; this type adds the
// bounded acquire timeout and the common error taxonomy.
type DBProvider struct {
	cfg    *config.ConnectorConfig
	logger *zap.Logger

	db       *sql.DB
	waits    atomic.Int64
	timeouts atomic.Int64
}

// NewDBProvider creates a relational connection provider
func NewDBProvider(cfg *config.ConnectorConfig) *DBProvider {
	return &DBProvider{
		cfg:    cfg,
		logger: logger.Get().With(zap.String("connector", cfg.ID), zap.String("component", "sql_pool")),
	}
}

// Init opens the database handle and sizes its pool. database/sql defers
// dialing until first use, so reachability is the validator's concern.
func (p *DBProvider) Init(ctx context.Context) error {
	if p.db != nil {
		return nil
	}

	driver := p.cfg.Connection.Driver
	if driver == "" {
		return errors.Newf(errors.ErrorTypeConfig,
			"relational connector %q requires a driver", p.cfg.ID)
	}

	db, err := sql.Open(driver, p.cfg.Connection.URL)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig,
			"failed to open database handle").WithDetail("driver", driver)
	}

	db.SetMaxOpenConns(p.cfg.Pool.MaxOpen)
	db.SetMaxIdleConns(p.cfg.Pool.MinIdle)
	db.SetConnMaxIdleTime(p.cfg.Pool.IdleTimeout)
	db.SetConnMaxLifetime(p.cfg.Pool.MaxLifetime)

	p.db = db
	return nil
}

// Acquire leases a dedicated connection. Exhausting the pool past the
// acquire timeout is a connection error.
func (p *DBProvider) Acquire(ctx context.Context) (*sql.Conn, error) {
	if p.db == nil {
		return nil, errors.Newf(errors.ErrorTypeConnection,
			"database handle for connector %q is not initialized", p.cfg.ID)
	}

	p.waits.Add(1)
	acquireCtx, cancel := context.WithTimeout(ctx, p.cfg.Pool.AcquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if acquireCtx.Err() == context.DeadlineExceeded {
			p.timeouts.Add(1)
			return nil, errors.Wrap(err, errors.ErrorTypeConnection,
				"connection pool exhausted").WithDetail("timeout", p.cfg.Pool.AcquireTimeout.String())
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection,
			"failed to acquire database connection")
	}

	return conn, nil
}

// Release returns a lease to the pool; failures are logged, never
// propagated
func (p *DBProvider) Release(conn *sql.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && err != sql.ErrConnDone {
		p.logger.Warn("failed to release database connection", zap.Error(err))
	}
}

// Destroy closes the database handle and its pool. Idempotent.
func (p *DBProvider) Destroy() error {
	if p.db == nil {
		return nil
	}
	db := p.db
	p.db = nil
	if err := db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection,
			"failed to close database handle")
	}
	return nil
}

// Stats reports pool utilization from database/sql
func (p *DBProvider) Stats() core.PoolStats {
	if p.db == nil {
		return core.PoolStats{MaxSize: p.cfg.Pool.MaxOpen}
	}
	s := p.db.Stats()
	return core.PoolStats{
		Active:   s.InUse,
		Idle:     s.Idle,
		Total:    s.OpenConnections,
		MaxSize:  s.MaxOpenConnections,
		Waits:    p.waits.Load(),
		Timeouts: p.timeouts.Load(),
	}
}

// PingValidator is the default relational health check: acquire a
// connection and ping it.
type PingValidator struct {
	provider *DBProvider
}

// NewPingValidator creates the default relational validator
func NewPingValidator(provider *DBProvider) *PingValidator {
	return &PingValidator{provider: provider}
}

// Validate acquires a connection and pings the backend
func (v *PingValidator) Validate(ctx context.Context) error {
	conn, err := v.provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer v.provider.Release(conn)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "database ping failed")
	}
	return nil
}
