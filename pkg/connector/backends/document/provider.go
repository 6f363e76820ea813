// Package document implements the document-store backend binding on
// MongoDB: a client provider, a match-filter query builder, a document
// mapper and a ping validator, wired into the shared orchestrator.
package document

import (
	"context"
	"crypto/tls"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/logger"
)

// ClientProvider manages the document-store client. The driver pools
// connections internally; pool sizing and the checkout wait bound are
// configured onto the client at Init, and a pool monitor feeds Stats.
type ClientProvider struct {
	cfg    *config.ConnectorConfig
	logger *zap.Logger
	client *mongo.Client

	active   atomic.Int64
	total    atomic.Int64
	waits    atomic.Int64
	timeouts atomic.Int64
}

// NewClientProvider creates a document-store connection provider
func NewClientProvider(cfg *config.ConnectorConfig) *ClientProvider {
	return &ClientProvider{
		cfg:    cfg,
		logger: logger.Get().With(zap.String("connector", cfg.ID), zap.String("component", "doc_pool")),
	}
}

// Init connects the client with pool sizing from configuration
func (p *ClientProvider) Init(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	opts := options.Client().
		ApplyURI(p.cfg.Connection.URL).
		SetMaxPoolSize(uint64(p.cfg.Pool.MaxOpen)).
		SetMinPoolSize(uint64(p.cfg.Pool.MinIdle)).
		SetMaxConnIdleTime(p.cfg.Pool.IdleTimeout).
		SetTimeout(p.cfg.Pool.AcquireTimeout).
		SetPoolMonitor(p.poolMonitor())

	if username, ok := p.cfg.Connection.Credentials["username"]; ok {
		opts.SetAuth(options.Credential{
			Username: username,
			Password: p.cfg.Connection.Credentials["password"],
		})
	}
	if p.cfg.Connection.EnableTLS {
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: p.cfg.Connection.TLSSkipVerify, //nolint:gosec // G402: operator opt-in
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig,
			"invalid document store configuration").WithDetail("url", p.cfg.Connection.URL)
	}

	p.client = client
	return nil
}

// Acquire hands out the pooled client. Unreachability surfaces on
// execution or through the validator, matching the deferred-dial behavior
// of the relational binding.
func (p *ClientProvider) Acquire(ctx context.Context) (*mongo.Client, error) {
	if p.client == nil {
		return nil, errors.Newf(errors.ErrorTypeConnection,
			"document store client for connector %q is not initialized", p.cfg.ID)
	}
	return p.client, nil
}

// Release is a no-op; the driver returns connections to its own pool
func (p *ClientProvider) Release(client *mongo.Client) {}

// Destroy disconnects the client. Idempotent.
func (p *ClientProvider) Destroy() error {
	if p.client == nil {
		return nil
	}
	client := p.client
	p.client = nil

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Pool.AcquireTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection,
			"failed to disconnect document store client")
	}
	return nil
}

// Stats reports pool utilization observed through the pool monitor
func (p *ClientProvider) Stats() core.PoolStats {
	active := int(p.active.Load())
	total := int(p.total.Load())
	return core.PoolStats{
		Active:   active,
		Idle:     total - active,
		Total:    total,
		MaxSize:  p.cfg.Pool.MaxOpen,
		Waits:    p.waits.Load(),
		Timeouts: p.timeouts.Load(),
	}
}

func (p *ClientProvider) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				p.total.Add(1)
			case event.ConnectionClosed:
				p.total.Add(-1)
			case event.GetStarted:
				p.waits.Add(1)
			case event.GetSucceeded:
				p.active.Add(1)
			case event.GetFailed:
				if evt.Reason == event.ReasonTimedOut {
					p.timeouts.Add(1)
				}
			case event.ConnectionReturned:
				p.active.Add(-1)
			}
		},
	}
}

// PingValidator is the default document-store health check
type PingValidator struct {
	provider *ClientProvider
}

// NewPingValidator creates the default document-store validator
func NewPingValidator(provider *ClientProvider) *PingValidator {
	return &PingValidator{provider: provider}
}

// Validate pings the document store
func (v *PingValidator) Validate(ctx context.Context) error {
	client, err := v.provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer v.provider.Release(client)

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "document store ping failed")
	}
	return nil
}
